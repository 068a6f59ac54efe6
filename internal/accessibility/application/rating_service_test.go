package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

func mustScore(t *testing.T, v float64) *domain.Score {
	t.Helper()
	s, err := domain.NewScore(v)
	if err != nil {
		t.Fatalf("NewScore(%v): %v", v, err)
	}
	return &s
}

func newRatingFixture(t *testing.T) (*RatingService, *memoryRatings, *memoryPlaces, *memoryUsers, string) {
	t.Helper()
	ratings := newMemoryRatings()
	places := newMemoryPlaces("place-1", "place-2")
	users := newMemoryUsers()
	userID := users.add(domain.User{Email: "ada@example.com", Hash: "h1"})

	svc := NewRatingService(ratings, places, users)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc, ratings, places, users, userID
}

func TestSubmitRecomputesAverages(t *testing.T) {
	svc, _, places, _, userID := newRatingFixture(t)

	rating, err := svc.Submit(context.Background(), SubmitRatingCommand{
		UserID:  userID,
		PlaceID: "place-1",
		Braille: mustScore(t, 4),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rating.ID == "" {
		t.Fatal("expected rating to be assigned an id")
	}
	if !rating.DateCreated.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected DateCreated %v", rating.DateCreated)
	}

	place, err := places.FindByID(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if place.Averages.Braille == nil || *place.Averages.Braille != 4 {
		t.Fatalf("expected braille average 4, got %v", place.Averages.Braille)
	}
	if place.Averages.Navigability != nil {
		t.Fatalf("expected nil navigability average, got %v", *place.Averages.Navigability)
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	svc, _, _, _, userID := newRatingFixture(t)

	cmd := SubmitRatingCommand{UserID: userID, PlaceID: "place-1", Braille: mustScore(t, 3)}
	if _, err := svc.Submit(context.Background(), cmd); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), cmd); !errors.Is(err, ErrDuplicateRating) {
		t.Fatalf("expected ErrDuplicateRating, got %v", err)
	}
}

func TestSubmitSamePlaceDifferentUsers(t *testing.T) {
	svc, _, places, users, first := newRatingFixture(t)
	second := users.add(domain.User{Email: "grace@example.com", Hash: "h2"})

	if _, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: first, PlaceID: "place-1", Braille: mustScore(t, 4)}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: second, PlaceID: "place-1", Braille: mustScore(t, 2)}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	place, err := places.FindByID(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if place.Averages.Braille == nil || *place.Averages.Braille != 3 {
		t.Fatalf("expected braille average 3, got %v", place.Averages.Braille)
	}
}

func TestSubmitUnknownUserOrPlace(t *testing.T) {
	svc, _, _, _, userID := newRatingFixture(t)

	if _, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: "missing", PlaceID: "place-1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: userID, PlaceID: "nowhere"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown place: expected ErrNotFound, got %v", err)
	}
}

func TestEditDropsUnchangedFields(t *testing.T) {
	svc, _, places, _, userID := newRatingFixture(t)

	rating, err := svc.Submit(context.Background(), SubmitRatingCommand{
		UserID:  userID,
		PlaceID: "place-1",
		Braille: mustScore(t, 4),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Same braille value again changes nothing.
	_, err = svc.Edit(context.Background(), EditRatingCommand{
		RatingID:    rating.ID,
		RequesterID: userID,
		Patch:       domain.RatingPatch{Braille: mustScore(t, 4)},
	})
	if !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}

	updated, err := svc.Edit(context.Background(), EditRatingCommand{
		RatingID:    rating.ID,
		RequesterID: userID,
		Patch:       domain.RatingPatch{Braille: mustScore(t, 2)},
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if updated.DateEdited == nil {
		t.Fatal("expected DateEdited to be set")
	}

	place, err := places.FindByID(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if place.Averages.Braille == nil || *place.Averages.Braille != 2 {
		t.Fatalf("expected braille average 2 after edit, got %v", place.Averages.Braille)
	}
}

func TestEditRequiresOwnership(t *testing.T) {
	svc, _, _, users, userID := newRatingFixture(t)
	other := users.add(domain.User{Email: "grace@example.com", Hash: "h2"})

	rating, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: userID, PlaceID: "place-1", Braille: mustScore(t, 4)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = svc.Edit(context.Background(), EditRatingCommand{
		RatingID:    rating.ID,
		RequesterID: other,
		Patch:       domain.RatingPatch{Braille: mustScore(t, 1)},
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteRecomputesAverages(t *testing.T) {
	svc, _, places, users, first := newRatingFixture(t)
	second := users.add(domain.User{Email: "grace@example.com", Hash: "h2"})

	kept, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: first, PlaceID: "place-1", Braille: mustScore(t, 4)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	removed, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: second, PlaceID: "place-1", Braille: mustScore(t, 2)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), removed.ID, second)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion to be reported")
	}

	place, err := places.FindByID(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if place.Averages.Braille == nil || *place.Averages.Braille != 4 {
		t.Fatalf("expected braille average back to 4, got %v", place.Averages.Braille)
	}
	if _, err := svc.ByID(context.Background(), kept.ID); err != nil {
		t.Fatalf("surviving rating should still load: %v", err)
	}
}

func TestDeleteLastRatingClearsAverages(t *testing.T) {
	svc, _, places, _, userID := newRatingFixture(t)

	rating, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: userID, PlaceID: "place-1", Braille: mustScore(t, 4)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Delete(context.Background(), rating.ID, userID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	place, err := places.FindByID(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if place.Averages.Braille != nil {
		t.Fatalf("expected braille average cleared, got %v", *place.Averages.Braille)
	}
}

func TestDeleteMissingRating(t *testing.T) {
	svc, _, _, _, userID := newRatingFixture(t)

	deleted, err := svc.Delete(context.Background(), "no-such-rating", userID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Fatal("expected no deletion for a missing rating")
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc, _, _, users, userID := newRatingFixture(t)
	other := users.add(domain.User{Email: "grace@example.com", Hash: "h2"})

	rating, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: userID, PlaceID: "place-1", Braille: mustScore(t, 4)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Delete(context.Background(), rating.ID, other); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestHasRated(t *testing.T) {
	svc, _, _, _, userID := newRatingFixture(t)

	rated, err := svc.HasRated(context.Background(), "ada@example.com", "place-1")
	if err != nil {
		t.Fatalf("HasRated: %v", err)
	}
	if rated {
		t.Fatal("expected no rating yet")
	}

	if _, err := svc.Submit(context.Background(), SubmitRatingCommand{UserID: userID, PlaceID: "place-1", Braille: mustScore(t, 4)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rated, err = svc.HasRated(context.Background(), "ada@example.com", "place-1")
	if err != nil {
		t.Fatalf("HasRated: %v", err)
	}
	if !rated {
		t.Fatal("expected the rating to be reported")
	}

	if _, err := svc.HasRated(context.Background(), "nobody@example.com", "place-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestRecomputeReportsPlaceWriteFailure(t *testing.T) {
	svc, _, places, _, _ := newRatingFixture(t)

	places.failNextUpdate = errors.New("write concern timeout")
	if _, err := svc.Recompute(context.Background(), "place-1"); err == nil {
		t.Fatal("expected the place write failure to surface")
	}
}
