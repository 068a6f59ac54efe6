package public

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	accessapp "github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/infrastructure/places"
	promoapp "github.com/peer-app/peer-services/api/internal/promotion/application"
)

// PlaceProvider is the slice of the place-search client the handlers use.
type PlaceProvider interface {
	Nearby(ctx context.Context, lat, lng float64) ([]places.Place, error)
	Search(ctx context.Context, text string) ([]places.Place, error)
	Details(ctx context.Context, placeID string) (*places.Details, error)
	Photo(ctx context.Context, reference string, maxWidth int) ([]byte, string, error)
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         *log.Logger
	ratingCommands accessapp.RatingCommandService
	ratingQueries  accessapp.RatingQueryService
	places         accessapp.PlaceService
	users          accessapp.UserService
	auth           accessapp.AuthService
	promotions     promoapp.Service
	provider       PlaceProvider
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         *log.Logger
	RatingCommands accessapp.RatingCommandService
	RatingQueries  accessapp.RatingQueryService
	Places         accessapp.PlaceService
	Users          accessapp.UserService
	Auth           accessapp.AuthService
	Promotions     promoapp.Service
	Provider       PlaceProvider
}

// NewHandler constructs the public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:         cfg.Logger,
		ratingCommands: cfg.RatingCommands,
		ratingQueries:  cfg.RatingQueries,
		places:         cfg.Places,
		users:          cfg.Users,
		auth:           cfg.Auth,
		promotions:     cfg.Promotions,
		provider:       cfg.Provider,
	}
}

// Register mounts all public routes onto the router. The route names follow
// the API the mobile clients already speak.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/addUser", h.addUserHandler())
	r.Post("/login", h.loginHandler())
	r.Get("/getUser/{id}", h.getUserHandler())
	r.With(authMiddleware).Patch("/editUser", h.editUserHandler())

	r.Get("/getPlace/{id}", h.getPlaceHandler())
	r.Get("/getPlaceDetails/{id}", h.getPlaceDetailsHandler())
	r.Get("/getNearbyPlaces", h.nearbyPlacesHandler())
	r.Get("/searchPlaces", h.searchPlacesHandler())
	r.Get("/getPlacePhoto/{ref}", h.placePhotoHandler())
	r.Post("/addPlace", h.addPlaceHandler())

	r.With(authMiddleware).Post("/addRatingToPlace", h.addRatingHandler())
	r.Get("/getAllPlaceRatings/{id}", h.placeRatingsHandler())
	r.Get("/getRating/{id}", h.ratingHandler())
	r.Get("/getRatingsFromUser/{id}", h.userRatingsHandler())
	r.Get("/getPotentialRating/{email}/{placeID}", h.potentialRatingHandler())
	r.With(authMiddleware).Patch("/editRating", h.editRatingHandler())
	r.With(authMiddleware).Delete("/deleteRating/{id}", h.deleteRatingHandler())

	r.Post("/promotePlace", h.promotePlaceHandler())
	r.Post("/clickPromo", h.clickPromoHandler())
}
