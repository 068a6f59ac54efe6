package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// NewRatingService builds the command/query service pair over the three
// repositories. now is replaceable for tests.
func NewRatingService(ratings RatingRepository, places PlaceRepository, users UserRepository) *RatingService {
	return &RatingService{
		ratings: ratings,
		places:  places,
		users:   users,
		now:     time.Now,
	}
}

// RatingService implements RatingCommandService and RatingQueryService.
type RatingService struct {
	ratings RatingRepository
	places  PlaceRepository
	users   UserRepository
	now     func() time.Time
}

// Submit admits a new rating. The user and place must exist, and the
// (user, place) pair must not have been rated before: the lookup here is a
// fast-path rejection, the unique index on the ratings collection is the
// actual enforcement. On success the place's averages are recomputed before
// returning.
func (s *RatingService) Submit(ctx context.Context, cmd SubmitRatingCommand) (*domain.Rating, error) {
	if _, err := s.users.FindByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}
	if _, err := s.places.FindByID(ctx, cmd.PlaceID); err != nil {
		return nil, err
	}

	existing, err := s.ratings.FindByUserAndPlace(ctx, cmd.UserID, cmd.PlaceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRating
	}

	rating := &domain.Rating{
		UserID:           cmd.UserID,
		PlaceID:          cmd.PlaceID,
		Braille:          cmd.Braille,
		FontReadability:  cmd.FontReadability,
		StaffHelpfulness: cmd.StaffHelpfulness,
		Navigability:     cmd.Navigability,
		GuideDogFriendly: cmd.GuideDogFriendly,
		Comment:          cmd.Comment,
		DateCreated:      s.now().UTC(),
	}
	if err := s.ratings.Insert(ctx, rating); err != nil {
		return nil, err
	}

	if _, err := s.Recompute(ctx, cmd.PlaceID); err != nil {
		return nil, err
	}
	return rating, nil
}

// Edit applies a partial update to an existing rating owned by the
// requester. Fields equal to their stored value are dropped from the patch;
// a patch that changes nothing is rejected with ErrNoChange.
func (s *RatingService) Edit(ctx context.Context, cmd EditRatingCommand) (*domain.Rating, error) {
	existing, err := s.ratings.FindByID(ctx, cmd.RatingID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != cmd.RequesterID {
		return nil, ErrNotOwner
	}

	patch := diffPatch(*existing, cmd.Patch)
	if patch.IsEmpty() {
		return nil, ErrNoChange
	}

	updated, err := s.ratings.Update(ctx, cmd.RatingID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if _, err := s.Recompute(ctx, updated.PlaceID); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a rating and recomputes the affected place. A missing id
// is reported as (false, nil), not an error.
func (s *RatingService) Delete(ctx context.Context, ratingID, requesterID string) (bool, error) {
	existing, err := s.ratings.FindByID(ctx, ratingID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if existing.UserID != requesterID {
		return false, ErrNotOwner
	}

	deleted, err := s.ratings.Delete(ctx, ratingID)
	if err != nil || !deleted {
		return deleted, err
	}
	if _, err := s.Recompute(ctx, existing.PlaceID); err != nil {
		return true, err
	}
	return true, nil
}

// Recompute reads every rating stored for the place, derives the per-metric
// means and replaces the place's averages wholesale. The write and the
// preceding rating mutation are separate store operations; if this write
// fails the rating stands and the caller may re-run recomputation.
func (s *RatingService) Recompute(ctx context.Context, placeID string) (*domain.Place, error) {
	ratings, err := s.ratings.FindByPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}

	avgs := domain.ComputeAverages(ratings)
	if err := s.places.UpdateAverages(ctx, placeID, avgs); err != nil {
		return nil, fmt.Errorf("could not update place %q: %w", placeID, err)
	}
	return s.places.FindByID(ctx, placeID)
}

// ByID returns a single rating.
func (s *RatingService) ByID(ctx context.Context, id string) (*domain.Rating, error) {
	return s.ratings.FindByID(ctx, id)
}

// ForPlace returns every rating stored for the place, oldest first.
func (s *RatingService) ForPlace(ctx context.Context, placeID string) ([]domain.Rating, error) {
	return s.ratings.FindByPlace(ctx, placeID)
}

// FromUser returns every rating the user has submitted.
func (s *RatingService) FromUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	return s.ratings.FindByUser(ctx, userID)
}

// HasRated reports whether the account behind email has already rated the
// place. Used by clients to decide between the submit and edit flows.
func (s *RatingService) HasRated(ctx context.Context, email, placeID string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	_, err = s.ratings.FindByUserAndPlace(ctx, user.ID, placeID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// diffPatch keeps only the fields that differ from the stored rating.
func diffPatch(existing domain.Rating, patch domain.RatingPatch) domain.RatingPatch {
	result := domain.RatingPatch{}
	if patch.Braille != nil && !sameScore(existing.Braille, patch.Braille) {
		result.Braille = patch.Braille
	}
	if patch.FontReadability != nil && !sameScore(existing.FontReadability, patch.FontReadability) {
		result.FontReadability = patch.FontReadability
	}
	if patch.StaffHelpfulness != nil && !sameScore(existing.StaffHelpfulness, patch.StaffHelpfulness) {
		result.StaffHelpfulness = patch.StaffHelpfulness
	}
	if patch.Navigability != nil && !sameScore(existing.Navigability, patch.Navigability) {
		result.Navigability = patch.Navigability
	}
	if patch.GuideDogFriendly != nil && existing.GuideDogFriendly != *patch.GuideDogFriendly {
		result.GuideDogFriendly = patch.GuideDogFriendly
	}
	if patch.Comment != nil && (existing.Comment == nil || *existing.Comment != *patch.Comment) {
		result.Comment = patch.Comment
	}
	return result
}

func sameScore(a, b *domain.Score) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
