package domain

// Averages holds the per-metric means derived from all ratings of a place.
// A nil field means no stored rating contributes to that metric yet.
// GuideDogFriendly is the fraction of yes answers in [0,1].
type Averages struct {
	Braille          *float64
	FontReadability  *float64
	StaffHelpfulness *float64
	Navigability     *float64
	GuideDogFriendly *float64
}

// PromotionSettings is the paid-placement configuration carried on a place.
// Both values are dollars; a place with either value at zero is not eligible
// for promotion.
type PromotionSettings struct {
	MonthlyBudget float64
	MaxCPC        float64
}

// Place is an externally identified location. The ID is the place-search
// provider's place id; this system never generates place ids of its own.
// The averages are a derived projection of the ratings collection and are
// replaced wholesale on every recomputation.
type Place struct {
	ID        string
	Averages  Averages
	Promotion *PromotionSettings
}

// ComputeAverages derives the per-metric means from the full set of ratings
// currently stored for a place. Each metric averages only its non-null
// contributions; a metric nobody has answered stays nil. The tri-state
// guide-dog metric averages Yes as 1 and No as 0 with Unknown excluded from
// both numerator and denominator.
func ComputeAverages(ratings []Rating) Averages {
	var avgs Averages
	avgs.Braille = meanScore(ratings, func(r Rating) *Score { return r.Braille })
	avgs.FontReadability = meanScore(ratings, func(r Rating) *Score { return r.FontReadability })
	avgs.StaffHelpfulness = meanScore(ratings, func(r Rating) *Score { return r.StaffHelpfulness })
	avgs.Navigability = meanScore(ratings, func(r Rating) *Score { return r.Navigability })

	sum := 0.0
	count := 0
	for _, r := range ratings {
		if !r.GuideDogFriendly.Known() {
			continue
		}
		sum += r.GuideDogFriendly.Float64()
		count++
	}
	if count > 0 {
		mean := sum / float64(count)
		avgs.GuideDogFriendly = &mean
	}
	return avgs
}

func meanScore(ratings []Rating, pick func(Rating) *Score) *float64 {
	sum := 0.0
	count := 0
	for _, r := range ratings {
		if score := pick(r); score != nil {
			sum += score.Float64()
			count++
		}
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
