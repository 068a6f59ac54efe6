package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	accessapp "github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/config"
	mongodoc "github.com/peer-app/peer-services/api/internal/infrastructure/mongo"
	"github.com/peer-app/peer-services/api/internal/infrastructure/places"
	commonhttp "github.com/peer-app/peer-services/api/internal/interfaces/http/common"
	publichttp "github.com/peer-app/peer-services/api/internal/interfaces/http/public"
	promoapp "github.com/peer-app/peer-services/api/internal/promotion/application"
)

// Server is the composition root: it wires the Mongo repositories, the
// application services and the place-search client into the HTTP handlers
// and manages the process lifecycle.
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	database       *mongo.Database
	collections    mongodoc.Collections
	ratingService  *accessapp.RatingService
	placeService   accessapp.PlaceService
	userService    accessapp.UserService
	authService    accessapp.AuthService
	promoService   promoapp.Service
	provider       publichttp.PlaceProvider
	addr           string
	allowedOrigins []string
}

// New assembles the dependency graph from config and an open Mongo client.
func New(cfg config.Config, client *mongo.Client) *Server {
	srv := &Server{
		logger:   cfg.ServerLog,
		client:   client,
		database: client.Database(cfg.MongoDatabase),
		collections: mongodoc.Collections{
			Ratings:         cfg.RatingCollection,
			Places:          cfg.PlaceCollection,
			PromotionMonths: cfg.PromotionMonthCollection,
			Users:           cfg.UserCollection,
		},
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	ratingRepo := mongodoc.NewRatingRepository(srv.database, cfg.RatingCollection)
	placeRepo := mongodoc.NewPlaceRepository(srv.database, cfg.PlaceCollection)
	monthRepo := mongodoc.NewPromotionMonthRepository(srv.database, cfg.PromotionMonthCollection)
	userRepo := mongodoc.NewUserRepository(srv.database, cfg.UserCollection)

	srv.ratingService = accessapp.NewRatingService(ratingRepo, placeRepo, userRepo)
	srv.placeService = accessapp.NewPlaceService(placeRepo)
	srv.userService = accessapp.NewUserService(userRepo)
	srv.authService = accessapp.NewAuthService(userRepo, accessapp.AuthConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	})
	srv.promoService = promoapp.NewService(monthRepo, placeRepo)
	srv.provider = places.New(cfg.PlacesBaseURL, cfg.PlacesAPIKey)

	return srv
}

// Run ensures the unique indexes exist, mounts the routes and serves until
// the process is told to stop.
func (s *Server) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := mongodoc.EnsureIndexes(ctx, s.database, s.collections); err != nil {
		cancel()
		return err
	}
	cancel()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:         s.logger,
		RatingCommands: s.ratingService,
		RatingQueries:  s.ratingService,
		Places:         s.placeService,
		Users:          s.userService,
		Auth:           s.authService,
		Promotions:     s.promoService,
		Provider:       s.provider,
	})
	publicHandler.Register(router, s.authMiddleware)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

// withCORS grants the configured origins; "*" allows everything.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler reports Mongo reachability for the monitoring probes.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// authMiddleware verifies the Bearer token against the auth service and
// stores the principal in the request context. The auth service also
// checks the token against the one on file, so a re-login invalidates
// every earlier token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.writeJSON(w, http.StatusUnauthorized, commonhttp.UnauthorizedError)
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			s.writeJSON(w, http.StatusUnauthorized, commonhttp.UnauthorizedError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		user, err := s.authService.Authenticate(ctx, tokenString)
		cancel()
		if errors.Is(err, accessapp.ErrUnauthorized) {
			s.writeJSON(w, http.StatusUnauthorized, commonhttp.UnauthorizedError)
			return
		}
		if err != nil {
			s.logger.Printf("token verification failed: %v", err)
			s.writeJSON(w, http.StatusInternalServerError, commonhttp.ServerError)
			return
		}

		principal := commonhttp.AuthenticatedUser{
			ID:          user.ID,
			Email:       user.Email,
			IsBlindMode: user.IsBlindMode,
		}
		next.ServeHTTP(w, r.WithContext(commonhttp.ContextWithUser(r.Context(), principal)))
	})
}

// writeJSON is the server-level JSON writer used outside the handler set.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("failed to encode JSON response: %v", err)
	}
}

// shutdown disconnects the Mongo client with a bounded timeout.
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("error while disconnecting MongoDB: %v", err)
	}
}

// waitForShutdown watches ListenAndServe and OS signals to drive a
// graceful stop.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("server exited abnormally: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("error during server shutdown: %v", err)
		}
	}

	srv.shutdown(context.Background())
}
