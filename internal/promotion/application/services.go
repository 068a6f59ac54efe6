package application

import (
	"context"
	"time"

	"github.com/peer-app/peer-services/api/internal/promotion/domain"
)

// MonthRepository is the port over the per-place monthly spend ledger.
// AddSpend must be an atomic increment so concurrent clicks never lose
// money; GetOrCreate must be an idempotent upsert on (place, month, year).
type MonthRepository interface {
	GetOrCreate(ctx context.Context, placeID string, month, year int) (*domain.Month, error)
	AddSpend(ctx context.Context, placeID string, month, year int, amount float64) error
}

// SettingsRepository persists and reads back the per-place promotion
// settings. The places collection owns them; this port keeps the promotion
// side decoupled from the accessibility aggregates.
type SettingsRepository interface {
	SetSettings(ctx context.Context, placeID string, settings domain.Settings) error
	FindSettings(ctx context.Context, placeIDs []string) (map[string]domain.Settings, error)
}

// Service drives paid placement: enrolling places, recording click charges
// and deciding which candidate wins a listing's promoted slot.
type Service interface {
	Promote(ctx context.Context, placeID string, settings domain.Settings) (*domain.Month, error)
	RecordClick(ctx context.Context, placeID string, spend float64) error
	Decide(ctx context.Context, placeIDs []string) (*domain.Decision, error)
}

// NewService builds the promotion service. now is replaceable for tests.
func NewService(months MonthRepository, settings SettingsRepository) *service {
	return &service{months: months, settings: settings, now: time.Now}
}

type service struct {
	months   MonthRepository
	settings SettingsRepository
	now      func() time.Time
}

// Promote stores the place's budget and bid and makes sure a spend record
// exists for the current billing period. Re-promoting within the same
// period replaces the settings but never resets the accumulated spend.
func (s *service) Promote(ctx context.Context, placeID string, settings domain.Settings) (*domain.Month, error) {
	if err := s.settings.SetSettings(ctx, placeID, settings); err != nil {
		return nil, err
	}
	month, year := domain.CurrentPeriod(s.now().UTC())
	return s.months.GetOrCreate(ctx, placeID, month, year)
}

// RecordClick charges one promoted click against the place's current
// period. The spend amount comes from the auction decision served with the
// listing; anything at or below zero is charged at the minimum. The
// increment is unconditional, so near-simultaneous clicks may take the
// period slightly past the budget; the overshoot is bounded by one bid and
// the place drops out of the next auction.
func (s *service) RecordClick(ctx context.Context, placeID string, spend float64) error {
	if spend <= 0 {
		spend = domain.MinimumCharge
	}
	month, year := domain.CurrentPeriod(s.now().UTC())
	return s.months.AddSpend(ctx, placeID, month, year, spend)
}

// Decide runs the auction over the given places and returns the winner, or
// nil when none qualifies. Candidate order follows placeIDs, which fixes
// the tie-break. Places without settings still enter as never-valid
// candidates so the input order is preserved exactly.
func (s *service) Decide(ctx context.Context, placeIDs []string) (*domain.Decision, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	settings, err := s.settings.FindSettings(ctx, placeIDs)
	if err != nil {
		return nil, err
	}

	month, year := domain.CurrentPeriod(s.now().UTC())
	candidates := make([]domain.Candidate, 0, len(placeIDs))
	for _, placeID := range placeIDs {
		candidate := domain.Candidate{PlaceID: placeID}
		if cfg, ok := settings[placeID]; ok {
			candidate.Settings = &cfg
		}
		if candidate.Settings != nil && candidate.Settings.Eligible() {
			record, err := s.months.GetOrCreate(ctx, placeID, month, year)
			if err != nil {
				return nil, err
			}
			candidate.MonthSpend = record.TotalSpent
		}
		candidates = append(candidates, candidate)
	}
	return domain.Rank(candidates), nil
}
