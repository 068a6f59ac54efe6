package public

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
	"github.com/peer-app/peer-services/api/internal/promotion/domain"
)

type promotePlaceRequest struct {
	PlaceID       string  `json:"placeID"`
	MonthlyBudget float64 `json:"monthlyBudget"`
	MaxCPC        float64 `json:"maxCPC"`
}

type clickPromoRequest struct {
	PlaceID     string  `json:"placeID"`
	SpendAmount float64 `json:"spendAmount"`
}

// promotePlaceHandler enrolls a place in paid placement, or replaces its
// budget and bid. Spend already accumulated this month is kept.
func (h *Handler) promotePlaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req promotePlaceRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.PlaceID) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}
		settings := domain.Settings{MonthlyBudget: req.MonthlyBudget, MaxCPC: req.MaxCPC}
		if !settings.Eligible() {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}

		if _, err := h.promotions.Promote(ctx, strings.TrimSpace(req.PlaceID), settings); err != nil {
			h.logger.Printf("promotion enroll failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, common.PromotionAdded)
	}
}

// clickPromoHandler records the charge for one click on a promoted
// listing. The amount echoes the auction decision served with the listing.
func (h *Handler) clickPromoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req clickPromoRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxRequestBody)).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.WrongParametersError)
			return
		}
		if strings.TrimSpace(req.PlaceID) == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.MissingParametersError)
			return
		}

		if err := h.promotions.RecordClick(ctx, strings.TrimSpace(req.PlaceID), req.SpendAmount); err != nil {
			h.logger.Printf("promotion click failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ServerError)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.ClickRecorded)
	}
}
