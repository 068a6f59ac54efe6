package domain

import (
	"fmt"
	"strings"
	"time"
)

// Score is a bounded accessibility score between 1 and 5 in half-point steps.
type Score float64

// NewScore validates the 1-5 range and the half-point granularity.
func NewScore(value float64) (Score, error) {
	if value < 1 || value > 5 {
		return 0, fmt.Errorf("score must be between 1 and 5")
	}
	doubled := value * 2
	if doubled != float64(int(doubled)) {
		return 0, fmt.Errorf("score must be in 0.5 increments")
	}
	return Score(value), nil
}

func (s Score) Float64() float64 {
	return float64(s)
}

// YesNo is a three-valued answer. Unknown contributions are excluded from
// averaging entirely; Yes and No average as 1 and 0.
type YesNo int

const (
	Unknown YesNo = iota
	No
	Yes
)

// ParseYesNo accepts the wire spellings the clients have historically sent:
// yes/no, true/false and 1/0. An empty string is Unknown, not an error.
func ParseYesNo(value string) (YesNo, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return Unknown, nil
	case "yes", "true", "1":
		return Yes, nil
	case "no", "false", "0":
		return No, nil
	}
	return Unknown, fmt.Errorf("invalid yes/no value: %q", value)
}

func (y YesNo) Known() bool {
	return y != Unknown
}

// Float64 maps Yes to 1 and No to 0 for averaging. Callers must check
// Known first; Unknown maps to 0 only as a placeholder.
func (y YesNo) Float64() float64 {
	if y == Yes {
		return 1
	}
	return 0
}

// Bool returns the pointer form used on the wire: nil for Unknown.
func (y YesNo) Bool() *bool {
	if !y.Known() {
		return nil
	}
	v := y == Yes
	return &v
}

// YesNoFromBool converts the wire pointer form back to the tri-state.
func YesNoFromBool(value *bool) YesNo {
	if value == nil {
		return Unknown
	}
	if *value {
		return Yes
	}
	return No
}

// Rating is one user's accessibility assessment of one place. At most one
// rating may exist per (user, place) pair; the ratings collection carries a
// unique compound index on those two fields.
type Rating struct {
	ID               string
	UserID           string
	PlaceID          string
	Braille          *Score
	FontReadability  *Score
	StaffHelpfulness *Score
	Navigability     *Score
	GuideDogFriendly YesNo
	Comment          *string
	DateCreated      time.Time
	DateEdited       *time.Time
}

// RatingPatch is a partial update. Nil fields are left unchanged.
type RatingPatch struct {
	Braille          *Score
	FontReadability  *Score
	StaffHelpfulness *Score
	Navigability     *Score
	GuideDogFriendly *YesNo
	Comment          *string
}

// IsEmpty reports whether the patch would change nothing.
func (p RatingPatch) IsEmpty() bool {
	return p.Braille == nil &&
		p.FontReadability == nil &&
		p.StaffHelpfulness == nil &&
		p.Navigability == nil &&
		p.GuideDogFriendly == nil &&
		p.Comment == nil
}
