package domain

import (
	"math"
	"sort"
	"time"
)

// MinimumCharge is the floor for a single promoted click, in dollars.
const MinimumCharge = 0.01

// Settings is a place's paid-placement configuration: how much its owner is
// willing to spend per calendar month and per click.
type Settings struct {
	MonthlyBudget float64
	MaxCPC        float64
}

// Eligible reports whether the settings allow the place to enter the
// promotion auction at all.
func (s Settings) Eligible() bool {
	return s.MonthlyBudget > 0 && s.MaxCPC > 0
}

// Month tracks cumulative promotion spend for one place in one billing
// period. TotalSpent only ever grows; it is incremented atomically by the
// store and never decremented.
type Month struct {
	ID         string
	PlaceID    string
	Month      int
	Year       int
	TotalSpent float64
}

// Candidate is one place entering the per-request promotion auction, with
// its settings (nil when the place has never been promoted) and the spend
// accumulated in the current billing period.
type Candidate struct {
	PlaceID    string
	Settings   *Settings
	MonthSpend float64
}

// Valid reports whether one more click at the candidate's maximum bid would
// stay within its monthly budget. Ineligible candidates are never valid.
func (c Candidate) Valid() bool {
	if c.Settings == nil || !c.Settings.Eligible() {
		return false
	}
	return c.MonthSpend+c.Settings.MaxCPC <= c.Settings.MonthlyBudget
}

// Decision names the single place promoted for this request and the amount
// it would be charged if clicked.
type Decision struct {
	PlaceID     string
	SpendAmount float64
}

// Rank runs the sealed-bid second-price auction over the candidates and
// returns the winning place, or nil when no candidate is valid. The winner
// is the valid candidate with the highest max CPC; it is charged the
// second-highest valid bid plus one cent, or the one-cent minimum when it
// has no valid competition. Candidates tied on max CPC keep their input
// order, so the earlier candidate wins.
//
// The result is a presentation-time decision recomputed on every request;
// nothing here is persisted.
func Rank(candidates []Candidate) *Decision {
	if len(candidates) == 0 {
		return nil
	}

	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := ranked[i].Valid(), ranked[j].Valid()
		if vi != vj {
			return vi
		}
		return maxCPC(ranked[i]) > maxCPC(ranked[j])
	})

	winner := ranked[0]
	if !winner.Valid() {
		return nil
	}

	charge := MinimumCharge
	if len(ranked) > 1 && ranked[1].Valid() {
		charge = roundCents(maxCPC(ranked[1]) + MinimumCharge)
	}
	return &Decision{PlaceID: winner.PlaceID, SpendAmount: charge}
}

// CurrentPeriod returns the 1-indexed month and the year of the billing
// period containing now.
func CurrentPeriod(now time.Time) (month, year int) {
	return int(now.Month()), now.Year()
}

func maxCPC(c Candidate) float64 {
	if c.Settings == nil {
		return 0
	}
	return c.Settings.MaxCPC
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
