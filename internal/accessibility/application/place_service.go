package application

import (
	"context"
	"errors"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// NewPlaceService builds the place use cases over the place repository.
func NewPlaceService(places PlaceRepository) *placeService {
	return &placeService{places: places}
}

type placeService struct {
	places PlaceRepository
}

// Get returns the place, creating it with all-null averages on first
// access. Creation is an idempotent upsert: two sequential fetches of an
// unknown id observe the same single document, and no ratings data is ever
// fabricated for it.
func (s *placeService) Get(ctx context.Context, id string) (*domain.Place, error) {
	return s.places.EnsureByID(ctx, id)
}

// Add creates the place explicitly and fails with ErrAlreadyExists when it
// is already tracked.
func (s *placeService) Add(ctx context.Context, id string) (*domain.Place, error) {
	place := &domain.Place{ID: id}
	if err := s.places.Insert(ctx, place); err != nil {
		return nil, err
	}
	return s.places.FindByID(ctx, id)
}

// Lookup fetches the stored places among ids; unknown ids are simply absent
// from the result. Listing flows use this so that browsing never creates
// place records.
func (s *placeService) Lookup(ctx context.Context, ids []string) (map[string]domain.Place, error) {
	found, err := s.places.FindByIDs(ctx, ids)
	if errors.Is(err, ErrNotFound) {
		return map[string]domain.Place{}, nil
	}
	return found, err
}
