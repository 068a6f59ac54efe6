package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
	promotion "github.com/peer-app/peer-services/api/internal/promotion/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlaceRepository persists place aggregates in MongoDB. It backs both the
// accessibility side (averages) and the promotion side (embedded settings);
// the _id is the external place id, never generated here.
type PlaceRepository struct {
	places *mongo.Collection
}

// NewPlaceRepository binds the repository to its collection.
func NewPlaceRepository(db *mongo.Database, collection string) *PlaceRepository {
	return &PlaceRepository{places: db.Collection(collection)}
}

// FindByID loads one place.
func (r *PlaceRepository) FindByID(ctx context.Context, id string) (*domain.Place, error) {
	var doc PlaceDocument
	err := r.places.FindOne(ctx, bson.M{"_id": strings.TrimSpace(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	place := mapPlaceDocument(doc)
	return &place, nil
}

// FindByIDs loads the stored places among ids, keyed by place id. Ids with
// no stored document are simply absent from the result.
func (r *PlaceRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Place, error) {
	result := make(map[string]domain.Place, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := r.places.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc PlaceDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result[doc.ID] = mapPlaceDocument(doc)
	}
	return result, cursor.Err()
}

// Insert creates the place explicitly, failing when it is already tracked.
func (r *PlaceRepository) Insert(ctx context.Context, place *domain.Place) error {
	doc := PlaceDocument{ID: strings.TrimSpace(place.ID)}
	if _, err := r.places.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return application.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// EnsureByID returns the place, creating it with all-null averages on first
// access. The $setOnInsert upsert makes concurrent first accesses converge
// on one document.
func (r *PlaceRepository) EnsureByID(ctx context.Context, id string) (*domain.Place, error) {
	id = strings.TrimSpace(id)
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{"_id": id}}

	var doc PlaceDocument
	if err := r.places.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	place := mapPlaceDocument(doc)
	return &place, nil
}

// UpdateAverages replaces the five derived means wholesale. Nil values are
// written as absent fields, which is how a metric with no remaining
// contributions is cleared.
func (r *PlaceRepository) UpdateAverages(ctx context.Context, placeID string, avgs domain.Averages) error {
	set := bson.M{}
	unset := bson.M{}
	putAverage(set, unset, "avgBraille", avgs.Braille)
	putAverage(set, unset, "avgFontReadability", avgs.FontReadability)
	putAverage(set, unset, "avgStaffHelpfulness", avgs.StaffHelpfulness)
	putAverage(set, unset, "avgNavigability", avgs.Navigability)
	putAverage(set, unset, "avgGuideDogFriendly", avgs.GuideDogFriendly)

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.places.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(placeID)}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("place %q: %w", placeID, application.ErrNotFound)
	}
	return nil
}

// SetSettings stores the place's promotion settings, creating the place
// when it has never been seen. Promotion does not require the place to have
// been rated or viewed first.
func (r *PlaceRepository) SetSettings(ctx context.Context, placeID string, settings promotion.Settings) error {
	opts := options.Update().SetUpsert(true)
	update := bson.M{"$set": bson.M{"promotion": PromotionSettingsDocument{
		MonthlyBudget: settings.MonthlyBudget,
		MaxCPC:        settings.MaxCPC,
	}}}
	_, err := r.places.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(placeID)}, update, opts)
	return err
}

// FindSettings returns the promotion settings stored for any of ids, keyed
// by place id. Places without settings do not appear.
func (r *PlaceRepository) FindSettings(ctx context.Context, placeIDs []string) (map[string]promotion.Settings, error) {
	result := make(map[string]promotion.Settings)
	if len(placeIDs) == 0 {
		return result, nil
	}

	filter := bson.M{
		"_id":       bson.M{"$in": placeIDs},
		"promotion": bson.M{"$exists": true},
	}
	cursor, err := r.places.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc PlaceDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Promotion == nil {
			continue
		}
		result[doc.ID] = promotion.Settings{
			MonthlyBudget: doc.Promotion.MonthlyBudget,
			MaxCPC:        doc.Promotion.MaxCPC,
		}
	}
	return result, cursor.Err()
}

// mapPlaceDocument restores the domain model from its stored form.
func mapPlaceDocument(doc PlaceDocument) domain.Place {
	place := domain.Place{
		ID: doc.ID,
		Averages: domain.Averages{
			Braille:          doc.AvgBraille,
			FontReadability:  doc.AvgFontReadability,
			StaffHelpfulness: doc.AvgStaffHelpfulness,
			Navigability:     doc.AvgNavigability,
			GuideDogFriendly: doc.AvgGuideDogFriendly,
		},
	}
	if doc.Promotion != nil {
		place.Promotion = &domain.PromotionSettings{
			MonthlyBudget: doc.Promotion.MonthlyBudget,
			MaxCPC:        doc.Promotion.MaxCPC,
		}
	}
	return place
}

func putAverage(set, unset bson.M, field string, value *float64) {
	if value != nil {
		set[field] = *value
	} else {
		unset[field] = ""
	}
}
