package domain

import "testing"

func scorePtr(t *testing.T, v float64) *Score {
	t.Helper()
	s, err := NewScore(v)
	if err != nil {
		t.Fatalf("NewScore(%v): %v", v, err)
	}
	return &s
}

func TestComputeAveragesNoRatings(t *testing.T) {
	avgs := ComputeAverages(nil)

	for name, got := range map[string]*float64{
		"braille":          avgs.Braille,
		"fontReadability":  avgs.FontReadability,
		"staffHelpfulness": avgs.StaffHelpfulness,
		"navigability":     avgs.Navigability,
		"guideDogFriendly": avgs.GuideDogFriendly,
	} {
		if got != nil {
			t.Errorf("%s: want nil average with no ratings, got %v", name, *got)
		}
	}
}

func TestComputeAveragesSingleRating(t *testing.T) {
	ratings := []Rating{
		{UserID: "u1", PlaceID: "p1", Braille: scorePtr(t, 4)},
	}

	avgs := ComputeAverages(ratings)
	if avgs.Braille == nil || *avgs.Braille != 4 {
		t.Errorf("braille average = %v, want 4", avgs.Braille)
	}
	if avgs.FontReadability != nil {
		t.Errorf("fontReadability average = %v, want nil", *avgs.FontReadability)
	}
	if avgs.Navigability != nil {
		t.Errorf("navigability average = %v, want nil", *avgs.Navigability)
	}
	if avgs.GuideDogFriendly != nil {
		t.Errorf("guideDogFriendly average = %v, want nil", *avgs.GuideDogFriendly)
	}
}

func TestComputeAveragesTwoRaters(t *testing.T) {
	ratings := []Rating{
		{UserID: "u1", PlaceID: "p1", Braille: scorePtr(t, 4)},
		{UserID: "u2", PlaceID: "p1", Braille: scorePtr(t, 2)},
	}

	avgs := ComputeAverages(ratings)
	if avgs.Braille == nil || *avgs.Braille != 3 {
		t.Errorf("braille average = %v, want 3", avgs.Braille)
	}

	// Removing the second rating must bring the mean back to the first.
	avgs = ComputeAverages(ratings[:1])
	if avgs.Braille == nil || *avgs.Braille != 4 {
		t.Errorf("braille average after delete = %v, want 4", avgs.Braille)
	}
}

func TestComputeAveragesSkipsNullMetrics(t *testing.T) {
	ratings := []Rating{
		{UserID: "u1", Braille: scorePtr(t, 5), Navigability: scorePtr(t, 3)},
		{UserID: "u2", Navigability: scorePtr(t, 4)},
		{UserID: "u3"},
	}

	avgs := ComputeAverages(ratings)
	if avgs.Braille == nil || *avgs.Braille != 5 {
		t.Errorf("braille average = %v, want 5 (single contributor)", avgs.Braille)
	}
	if avgs.Navigability == nil || *avgs.Navigability != 3.5 {
		t.Errorf("navigability average = %v, want 3.5", avgs.Navigability)
	}
	if avgs.StaffHelpfulness != nil {
		t.Errorf("staffHelpfulness average = %v, want nil", *avgs.StaffHelpfulness)
	}
}

func TestComputeAveragesGuideDogExcludesUnknown(t *testing.T) {
	ratings := []Rating{
		{UserID: "u1", GuideDogFriendly: Yes},
		{UserID: "u2", GuideDogFriendly: No},
		{UserID: "u3", GuideDogFriendly: Yes},
		{UserID: "u4", GuideDogFriendly: Unknown},
	}

	avgs := ComputeAverages(ratings)
	want := 2.0 / 3.0
	if avgs.GuideDogFriendly == nil || *avgs.GuideDogFriendly != want {
		t.Errorf("guideDogFriendly average = %v, want %v", avgs.GuideDogFriendly, want)
	}
}
