package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/infrastructure/places"
	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
)

type addPlaceRequest struct {
	PlaceID string `json:"placeID"`
}

// getPlaceHandler returns the stored aggregate for a place, creating it
// with all-null averages the first time the place is looked at.
func (h *Handler) getPlaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		placeID := strings.TrimSpace(chi.URLParam(r, "id"))
		if placeID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.InvalidPlaceIDError)
			return
		}

		place, err := h.places.Get(ctx, placeID)
		if err != nil {
			h.logger.Printf("place fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildPlaceResponse(*place))
	}
}

// addPlaceHandler creates the place record explicitly. Clients normally
// rely on the lazy path; this exists for tooling and backfills.
func (h *Handler) addPlaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req addPlaceRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.PlaceID) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		place, err := h.places.Add(ctx, strings.TrimSpace(req.PlaceID))
		if errors.Is(err, application.ErrAlreadyExists) {
			common.WriteJSON(h.logger, w, http.StatusConflict, common.PlaceExistsError)
			return
		}
		if err != nil {
			h.logger.Printf("place create failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, buildPlaceResponse(*place))
	}
}

// getPlaceDetailsHandler proxies the provider's extended place record.
func (h *Handler) getPlaceDetailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		placeID := strings.TrimSpace(chi.URLParam(r, "id"))
		if placeID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.InvalidPlaceIDError)
			return
		}

		details, err := h.provider.Details(ctx, placeID)
		if err != nil {
			h.logger.Printf("place details fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, details)
	}
}

// nearbyPlacesHandler lists the places around a coordinate, annotated with
// stored averages and the promoted slot for this response.
func (h *Handler) nearbyPlacesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		query := r.URL.Query()
		lat, latOK := common.ParseCoordinate(query.Get("latitude"))
		lng, lngOK := common.ParseCoordinate(query.Get("longitude"))
		if !latOK || !lngOK {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		results, err := h.provider.Nearby(ctx, lat, lng)
		if err != nil {
			h.logger.Printf("nearby search failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}

		annotated, err := h.annotatePlaces(ctx, results, true)
		if err != nil {
			h.logger.Printf("nearby annotation failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, annotated)
	}
}

// searchPlacesHandler runs a free-text place search. Stored averages are
// attached only when includeRatings is set; the promoted slot is always
// decided.
func (h *Handler) searchPlacesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		query := r.URL.Query()
		text := strings.TrimSpace(query.Get("search"))
		if text == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}
		includeRatings := false
		switch strings.ToLower(strings.TrimSpace(query.Get("includeRatings"))) {
		case "true", "1":
			includeRatings = true
		}

		results, err := h.provider.Search(ctx, text)
		if err != nil {
			h.logger.Printf("place search failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}

		annotated, err := h.annotatePlaces(ctx, results, includeRatings)
		if err != nil {
			h.logger.Printf("search annotation failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, annotated)
	}
}

// placePhotoHandler streams one provider photo through to the client.
func (h *Handler) placePhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		reference := strings.TrimSpace(chi.URLParam(r, "ref"))
		if reference == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}
		maxWidth, _ := common.ParsePositiveInt(r.URL.Query().Get("maxwidth"), 400)

		body, contentType, err := h.provider.Photo(ctx, reference, maxWidth)
		if err != nil {
			h.logger.Printf("place photo fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			h.logger.Printf("place photo write failed: %v", err)
		}
	}
}

// annotatePlaces decorates provider results with stored averages and the
// auction outcome. Browsing never creates place records, so only places
// already tracked get a ratings block. A failed auction only loses the
// promoted marker, never the listing.
func (h *Handler) annotatePlaces(ctx context.Context, results []places.Place, includeRatings bool) ([]providerPlaceResponse, error) {
	ids := make([]string, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.PlaceID)
	}

	annotated := make([]providerPlaceResponse, 0, len(results))
	for _, result := range results {
		annotated = append(annotated, providerPlaceResponse{Place: result})
	}

	if includeRatings && len(ids) > 0 {
		tracked, err := h.places.Lookup(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range annotated {
			if place, ok := tracked[annotated[i].PlaceID]; ok {
				averages := buildAveragesResponse(place.Averages)
				annotated[i].Ratings = &averages
			}
		}
	}

	decision, err := h.promotions.Decide(ctx, ids)
	if err != nil {
		h.logger.Printf("promotion decision failed: %v", err)
		return annotated, nil
	}
	if decision != nil {
		for i := range annotated {
			if annotated[i].PlaceID == decision.PlaceID {
				annotated[i].IsPromoted = true
				spend := decision.SpendAmount
				annotated[i].SpendAmount = &spend
				break
			}
		}
	}
	return annotated, nil
}
