package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names the MongoDB collections the service uses.
type Collections struct {
	Ratings         string
	Places          string
	PromotionMonths string
	Users           string
}

// EnsureIndexes creates the unique indexes the repositories rely on. It is
// idempotent and runs at startup; the duplicate-key mappings in the
// repositories are meaningless without these.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collections Collections) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{
			collection: collections.Ratings,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "userID", Value: 1}, {Key: "placeID", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_user_place"),
			},
		},
		{
			collection: collections.PromotionMonths,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "placeID", Value: 1}, {Key: "month", Value: 1}, {Key: "year", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_place_period"),
			},
		},
		{
			collection: collections.Users,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_email"),
			},
		},
	}

	for _, index := range indexes {
		if _, err := db.Collection(index.collection).Indexes().CreateOne(ctx, index.model); err != nil {
			return fmt.Errorf("could not create index on %s: %w", index.collection, err)
		}
	}
	return nil
}
