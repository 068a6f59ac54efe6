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
	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
)

type addUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Hash        string `json:"hash"`
	IsBlindMode bool   `json:"isBlindMode"`
}

type editUserRequest struct {
	ID          string  `json:"_id"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Hash        *string `json:"hash"`
	IsBlindMode *bool   `json:"isBlindMode"`
}

type loginRequest struct {
	Email string `json:"email"`
	Hash  string `json:"hash"`
}

// addUserHandler registers a new account. The hash arrives pre-digested
// from the client; plaintext passwords never reach this service.
func (h *Handler) addUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req addUserRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" ||
			strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Hash) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		email, err := domain.NewEmail(req.Email)
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}

		_, err = h.users.Create(ctx, application.CreateUserCommand{
			FirstName:   strings.TrimSpace(req.FirstName),
			LastName:    strings.TrimSpace(req.LastName),
			Email:       email,
			Hash:        req.Hash,
			IsBlindMode: req.IsBlindMode,
		})
		if errors.Is(err, application.ErrAlreadyExists) {
			common.WriteJSON(h.logger, w, http.StatusConflict, common.AccountExistsError)
			return
		}
		if err != nil {
			h.logger.Printf("user create failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, common.UserCreated)
	}
}

// editUserHandler applies a partial update to the principal's own account.
func (h *Handler) editUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}

		var req editUserRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}

		patch := domain.UserPatch{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Hash:        req.Hash,
			IsBlindMode: req.IsBlindMode,
		}
		if req.Email != nil {
			email, err := domain.NewEmail(*req.Email)
			if err != nil {
				common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
				return
			}
			patch.Email = &email
		}

		targetID := strings.TrimSpace(req.ID)
		if targetID == "" {
			targetID = principal.ID
		}

		updated, err := h.users.Edit(ctx, application.EditUserCommand{
			UserID:      targetID,
			RequesterID: principal.ID,
			Patch:       patch,
		})
		if err != nil {
			switch {
			case errors.Is(err, application.ErrNotOwner):
				common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			case errors.Is(err, application.ErrNoChange):
				common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			case errors.Is(err, application.ErrNotFound):
				common.WriteJSON(h.logger, w, http.StatusNotFound, common.AccountNotFoundError)
			case errors.Is(err, application.ErrAlreadyExists):
				common.WriteJSON(h.logger, w, http.StatusConflict, common.AccountExistsError)
			default:
				h.logger.Printf("user edit failed: %v", err)
				common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			}
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(*updated))
	}
}

// getUserHandler returns one account's public profile.
func (h *Handler) getUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := h.users.ByID(ctx, strings.TrimSpace(chi.URLParam(r, "id")))
		if errors.Is(err, application.ErrNotFound) {
			common.WriteJSON(h.logger, w, http.StatusNotFound, common.AccountNotFoundError)
			return
		}
		if err != nil {
			h.logger.Printf("user fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(*user))
	}
}

// loginHandler exchanges email and password digest for a fresh token. A
// wrong digest and an unknown address answer identically.
func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Hash) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		token, user, err := h.auth.Login(ctx, strings.TrimSpace(req.Email), req.Hash)
		if errors.Is(err, application.ErrNotFound) {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, common.UnauthorizedError)
			return
		}
		if err != nil {
			h.logger.Printf("login failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, loginResponse{
			Token: token,
			User:  buildUserResponse(*user),
		})
	}
}
