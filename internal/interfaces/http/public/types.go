package public

import (
	"time"
	"unicode/utf8"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
	"github.com/peer-app/peer-services/api/internal/infrastructure/places"
)

type ratingResponse struct {
	ID               string     `json:"_id"`
	UserID           string     `json:"userID"`
	PlaceID          string     `json:"placeID"`
	Braille          *float64   `json:"braille"`
	FontReadability  *float64   `json:"fontReadability"`
	StaffHelpfulness *float64   `json:"staffHelpfulness"`
	Navigability     *float64   `json:"navigability"`
	GuideDogFriendly *bool      `json:"guideDogFriendly"`
	Comment          *string    `json:"comment"`
	DateCreated      time.Time  `json:"dateCreated"`
	DateEdited       *time.Time `json:"dateEdited,omitempty"`
}

func buildRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		ID:               rating.ID,
		UserID:           rating.UserID,
		PlaceID:          rating.PlaceID,
		Braille:          scoreFloat(rating.Braille),
		FontReadability:  scoreFloat(rating.FontReadability),
		StaffHelpfulness: scoreFloat(rating.StaffHelpfulness),
		Navigability:     scoreFloat(rating.Navigability),
		GuideDogFriendly: rating.GuideDogFriendly.Bool(),
		Comment:          rating.Comment,
		DateCreated:      rating.DateCreated,
		DateEdited:       rating.DateEdited,
	}
}

func buildRatingListResponse(ratings []domain.Rating) []ratingResponse {
	result := make([]ratingResponse, 0, len(ratings))
	for _, rating := range ratings {
		result = append(result, buildRatingResponse(rating))
	}
	return result
}

// averagesResponse carries the derived per-metric means. Nulls are
// deliberate: a metric nobody has answered serializes as null, never as a
// fabricated number.
type averagesResponse struct {
	Braille          *float64 `json:"avgBraille"`
	FontReadability  *float64 `json:"avgFontReadability"`
	StaffHelpfulness *float64 `json:"avgStaffHelpfulness"`
	Navigability     *float64 `json:"avgNavigability"`
	GuideDogFriendly *float64 `json:"avgGuideDogFriendly"`
}

type placeResponse struct {
	ID string `json:"_id"`
	averagesResponse
	Promotion *promotionSettingsResponse `json:"promotion,omitempty"`
}

type promotionSettingsResponse struct {
	MonthlyBudget float64 `json:"monthlyBudget"`
	MaxCPC        float64 `json:"maxCPC"`
}

func buildAveragesResponse(avgs domain.Averages) averagesResponse {
	return averagesResponse{
		Braille:          avgs.Braille,
		FontReadability:  avgs.FontReadability,
		StaffHelpfulness: avgs.StaffHelpfulness,
		Navigability:     avgs.Navigability,
		GuideDogFriendly: avgs.GuideDogFriendly,
	}
}

func buildPlaceResponse(place domain.Place) placeResponse {
	response := placeResponse{
		ID:               place.ID,
		averagesResponse: buildAveragesResponse(place.Averages),
	}
	if place.Promotion != nil {
		response.Promotion = &promotionSettingsResponse{
			MonthlyBudget: place.Promotion.MonthlyBudget,
			MaxCPC:        place.Promotion.MaxCPC,
		}
	}
	return response
}

// providerPlaceResponse is one listing entry: the provider's place block,
// optionally annotated with stored averages and the promoted-slot marker.
type providerPlaceResponse struct {
	places.Place
	Ratings     *averagesResponse `json:"ratings,omitempty"`
	IsPromoted  bool              `json:"isPromoted,omitempty"`
	SpendAmount *float64          `json:"spendAmount,omitempty"`
}

type userResponse struct {
	ID          string `json:"_id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	IsBlindMode bool   `json:"isBlindMode"`
}

func buildUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		IsBlindMode: user.IsBlindMode,
	}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// ratingFieldsRequest is the shared metric block of the submit and edit
// payloads. Absent fields stay nil and mean "not answered" on submit or
// "leave unchanged" on edit.
type ratingFieldsRequest struct {
	Braille          *float64 `json:"braille"`
	FontReadability  *float64 `json:"fontReadability"`
	StaffHelpfulness *float64 `json:"staffHelpfulness"`
	Navigability     *float64 `json:"navigability"`
	GuideDogFriendly *bool    `json:"guideDogFriendly"`
	Comment          *string  `json:"comment"`
}

// toPatch validates the metric block into a domain patch.
func (f ratingFieldsRequest) toPatch() (domain.RatingPatch, bool) {
	patch := domain.RatingPatch{}
	for _, field := range []struct {
		value  *float64
		target **domain.Score
	}{
		{f.Braille, &patch.Braille},
		{f.FontReadability, &patch.FontReadability},
		{f.StaffHelpfulness, &patch.StaffHelpfulness},
		{f.Navigability, &patch.Navigability},
	} {
		if field.value == nil {
			continue
		}
		score, err := domain.NewScore(*field.value)
		if err != nil {
			return domain.RatingPatch{}, false
		}
		*field.target = &score
	}
	if f.GuideDogFriendly != nil {
		answer := domain.YesNoFromBool(f.GuideDogFriendly)
		patch.GuideDogFriendly = &answer
	}
	if f.Comment != nil {
		if utf8.RuneCountInString(*f.Comment) > common.MaxCommentRunes {
			return domain.RatingPatch{}, false
		}
		patch.Comment = f.Comment
	}
	return patch, true
}

func scoreFloat(score *domain.Score) *float64 {
	if score == nil {
		return nil
	}
	value := score.Float64()
	return &value
}
