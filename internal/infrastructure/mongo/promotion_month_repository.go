package mongo

import (
	"context"
	"strings"

	"github.com/peer-app/peer-services/api/internal/promotion/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PromotionMonthRepository persists per-place monthly spend records. The
// unique index on (placeID, month, year) keeps concurrent upserts from
// splitting a billing period across documents.
type PromotionMonthRepository struct {
	months *mongo.Collection
}

// NewPromotionMonthRepository binds the repository to its collection.
func NewPromotionMonthRepository(db *mongo.Database, collection string) *PromotionMonthRepository {
	return &PromotionMonthRepository{months: db.Collection(collection)}
}

// GetOrCreate returns the spend record for the billing period, creating it
// at zero spend when absent. Existing spend is never reset.
func (r *PromotionMonthRepository) GetOrCreate(ctx context.Context, placeID string, month, year int) (*domain.Month, error) {
	filter := bson.M{"placeID": strings.TrimSpace(placeID), "month": month, "year": year}
	update := bson.M{"$setOnInsert": bson.M{"totalSpent": 0.0}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc PromotionMonthDocument
	if err := r.months.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	record := mapPromotionMonthDocument(doc)
	return &record, nil
}

// AddSpend atomically adds one click's charge to the billing period. The
// upsert covers the first click of a period; the $inc makes concurrent
// clicks sum instead of racing.
func (r *PromotionMonthRepository) AddSpend(ctx context.Context, placeID string, month, year int, amount float64) error {
	filter := bson.M{"placeID": strings.TrimSpace(placeID), "month": month, "year": year}
	update := bson.M{"$inc": bson.M{"totalSpent": amount}}
	_, err := r.months.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// mapPromotionMonthDocument restores the domain model from its stored form.
func mapPromotionMonthDocument(doc PromotionMonthDocument) domain.Month {
	return domain.Month{
		ID:         doc.ID.Hex(),
		PlaceID:    doc.PlaceID,
		Month:      doc.Month,
		Year:       doc.Year,
		TotalSpent: doc.TotalSpent,
	}
}
