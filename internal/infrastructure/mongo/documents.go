package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingDocument is the MongoDB schema for one accessibility rating. The
// metric fields stay absent when the rater skipped them, so decoding yields
// nil and the aggregation ignores them. GuideDogFriendly is absent for
// "don't know", otherwise an explicit boolean.
type RatingDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	UserID           string             `bson:"userID"`
	PlaceID          string             `bson:"placeID"`
	Braille          *float64           `bson:"braille,omitempty"`
	FontReadability  *float64           `bson:"fontReadability,omitempty"`
	StaffHelpfulness *float64           `bson:"staffHelpfulness,omitempty"`
	Navigability     *float64           `bson:"navigability,omitempty"`
	GuideDogFriendly *bool              `bson:"guideDogFriendly,omitempty"`
	Comment          *string            `bson:"comment,omitempty"`
	DateCreated      time.Time          `bson:"dateCreated"`
	DateEdited       *time.Time         `bson:"dateEdited,omitempty"`
}

// PlaceDocument is the MongoDB schema for a tracked place. The _id is the
// external place id as given by the place-search provider. Averages are the
// derived per-metric means; an absent field means no rating contributes to
// that metric.
type PlaceDocument struct {
	ID                  string                     `bson:"_id"`
	AvgBraille          *float64                   `bson:"avgBraille,omitempty"`
	AvgFontReadability  *float64                   `bson:"avgFontReadability,omitempty"`
	AvgStaffHelpfulness *float64                   `bson:"avgStaffHelpfulness,omitempty"`
	AvgNavigability     *float64                   `bson:"avgNavigability,omitempty"`
	AvgGuideDogFriendly *float64                   `bson:"avgGuideDogFriendly,omitempty"`
	Promotion           *PromotionSettingsDocument `bson:"promotion,omitempty"`
}

// PromotionSettingsDocument is the paid-placement configuration embedded in
// a place document. Both amounts are dollars.
type PromotionSettingsDocument struct {
	MonthlyBudget float64 `bson:"monthlyBudget"`
	MaxCPC        float64 `bson:"maxCPC"`
}

// PromotionMonthDocument tracks cumulative promotion spend for one place in
// one billing period. (placeID, month, year) is unique; totalSpent is only
// ever incremented.
type PromotionMonthDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	PlaceID    string             `bson:"placeID"`
	Month      int                `bson:"month"`
	Year       int                `bson:"year"`
	TotalSpent float64            `bson:"totalSpent"`
}

// UserDocument is the MongoDB schema for an account. The token pair holds
// the login token currently on file together with its issue time.
type UserDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	FirstName        string             `bson:"firstName"`
	LastName         string             `bson:"lastName"`
	Email            string             `bson:"email"`
	Hash             string             `bson:"hash"`
	IsBlindMode      bool               `bson:"isBlindMode"`
	Token            *string            `bson:"token,omitempty"`
	DateTokenCreated *time.Time         `bson:"dateTokenCreated,omitempty"`
}
