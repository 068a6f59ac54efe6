package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
)

type addRatingRequest struct {
	UserID  string `json:"userID"`
	PlaceID string `json:"placeID"`
	ratingFieldsRequest
}

type editRatingRequest struct {
	ID string `json:"_id"`
	ratingFieldsRequest
}

// addRatingHandler admits one rating for the authenticated user. A body
// userID is accepted only when it names the principal; nobody rates on
// someone else's behalf.
func (h *Handler) addRatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}

		var req addRatingRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.PlaceID) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}
		if req.UserID != "" && req.UserID != principal.ID {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}

		patch, valid := req.toPatch()
		if !valid {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}

		cmd := application.SubmitRatingCommand{
			UserID:           principal.ID,
			PlaceID:          strings.TrimSpace(req.PlaceID),
			Braille:          patch.Braille,
			FontReadability:  patch.FontReadability,
			StaffHelpfulness: patch.StaffHelpfulness,
			Navigability:     patch.Navigability,
			Comment:          patch.Comment,
		}
		if patch.GuideDogFriendly != nil {
			cmd.GuideDogFriendly = *patch.GuideDogFriendly
		}

		if _, err := h.ratingCommands.Submit(ctx, cmd); err != nil {
			switch {
			case errors.Is(err, application.ErrDuplicateRating):
				common.WriteJSON(h.logger, w, http.StatusConflict, common.RatingExistsError)
			case errors.Is(err, application.ErrNotFound):
				common.WriteJSON(h.logger, w, http.StatusNotFound, common.PlaceNotFoundError)
			default:
				h.logger.Printf("rating submit failed: %v", err)
				common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			}
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, common.RatingCreated)
	}
}

// placeRatingsHandler returns every rating stored for a place, oldest
// first. An unrated place yields an empty array, not an error.
func (h *Handler) placeRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		placeID := strings.TrimSpace(chi.URLParam(r, "id"))
		if placeID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		ratings, err := h.ratingQueries.ForPlace(ctx, placeID)
		if err != nil {
			h.logger.Printf("place ratings fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildRatingListResponse(ratings))
	}
}

// ratingHandler returns a single rating by id.
func (h *Handler) ratingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rating, err := h.ratingQueries.ByID(ctx, strings.TrimSpace(chi.URLParam(r, "id")))
		if errors.Is(err, application.ErrNotFound) {
			common.WriteJSON(h.logger, w, http.StatusNotFound, common.RatingNotFoundError)
			return
		}
		if err != nil {
			h.logger.Printf("rating fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildRatingResponse(*rating))
	}
}

// userRatingsHandler returns every rating one user has submitted.
func (h *Handler) userRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		userID := strings.TrimSpace(chi.URLParam(r, "id"))
		if userID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		ratings, err := h.ratingQueries.FromUser(ctx, userID)
		if err != nil {
			h.logger.Printf("user ratings fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildRatingListResponse(ratings))
	}
}

// potentialRatingHandler tells a client whether the account behind email
// has already rated the place, so it can pick the submit or edit flow.
func (h *Handler) potentialRatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		email := strings.TrimSpace(chi.URLParam(r, "email"))
		placeID := strings.TrimSpace(chi.URLParam(r, "placeID"))
		if email == "" || placeID == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		hasRated, err := h.ratingQueries.HasRated(ctx, email, placeID)
		if errors.Is(err, application.ErrNotFound) {
			common.WriteJSON(h.logger, w, http.StatusNotFound, common.AccountNotFoundError)
			return
		}
		if err != nil {
			h.logger.Printf("potential rating check failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]bool{"hasRated": hasRated})
	}
}

// editRatingHandler applies a partial update to a rating the principal
// owns.
func (h *Handler) editRatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}

		var req editRatingRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		patch, valid := req.toPatch()
		if !valid {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}

		updated, err := h.ratingCommands.Edit(ctx, application.EditRatingCommand{
			RatingID:    strings.TrimSpace(req.ID),
			RequesterID: principal.ID,
			Patch:       patch,
		})
		if err != nil {
			switch {
			case errors.Is(err, application.ErrNotFound):
				common.WriteJSON(h.logger, w, http.StatusNotFound, common.RatingNotFoundError)
			case errors.Is(err, application.ErrNotOwner):
				common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			case errors.Is(err, application.ErrNoChange):
				common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			default:
				h.logger.Printf("rating edit failed: %v", err)
				common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			}
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildRatingResponse(*updated))
	}
}

// deleteRatingHandler removes a rating the principal owns.
func (h *Handler) deleteRatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}

		deleted, err := h.ratingCommands.Delete(ctx, strings.TrimSpace(chi.URLParam(r, "id")), principal.ID)
		if errors.Is(err, application.ErrNotOwner) {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}
		if err != nil {
			h.logger.Printf("rating delete failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		if !deleted {
			common.WriteJSON(h.logger, w, http.StatusNotFound, common.RatingNotFoundError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.RatingDeleted)
	}
}
