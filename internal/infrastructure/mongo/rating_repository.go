package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/peer-app/peer-services/api/internal/accessibility/application"
	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RatingRepository persists accessibility ratings in MongoDB. The unique
// compound index on (userID, placeID) is what actually enforces the
// one-rating-per-user-per-place rule; Insert maps its violation to
// ErrDuplicateRating.
type RatingRepository struct {
	ratings *mongo.Collection
}

// NewRatingRepository binds the repository to its collection.
func NewRatingRepository(db *mongo.Database, collection string) *RatingRepository {
	return &RatingRepository{ratings: db.Collection(collection)}
}

// Insert stores a new rating and writes the assigned id back to the model.
func (r *RatingRepository) Insert(ctx context.Context, rating *domain.Rating) error {
	doc := RatingDocument{
		ID:               primitive.NewObjectID(),
		UserID:           rating.UserID,
		PlaceID:          rating.PlaceID,
		Braille:          scoreValue(rating.Braille),
		FontReadability:  scoreValue(rating.FontReadability),
		StaffHelpfulness: scoreValue(rating.StaffHelpfulness),
		Navigability:     scoreValue(rating.Navigability),
		GuideDogFriendly: rating.GuideDogFriendly.Bool(),
		Comment:          rating.Comment,
		DateCreated:      rating.DateCreated,
		DateEdited:       rating.DateEdited,
	}

	if _, err := r.ratings.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return application.ErrDuplicateRating
		}
		return err
	}
	rating.ID = doc.ID.Hex()
	return nil
}

// FindByID loads a single rating. Malformed ids are reported as not found
// rather than as infrastructure errors.
func (r *RatingRepository) FindByID(ctx context.Context, id string) (*domain.Rating, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}

	var doc RatingDocument
	if err := r.ratings.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	rating := mapRatingDocument(doc)
	return &rating, nil
}

// FindByUserAndPlace loads the single rating the user holds for the place.
func (r *RatingRepository) FindByUserAndPlace(ctx context.Context, userID, placeID string) (*domain.Rating, error) {
	var doc RatingDocument
	err := r.ratings.FindOne(ctx, bson.M{"userID": userID, "placeID": placeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rating := mapRatingDocument(doc)
	return &rating, nil
}

// FindByPlace returns every rating stored for the place, oldest first.
func (r *RatingRepository) FindByPlace(ctx context.Context, placeID string) ([]domain.Rating, error) {
	return r.findAll(ctx, bson.M{"placeID": placeID})
}

// FindByUser returns every rating the user has submitted, oldest first.
func (r *RatingRepository) FindByUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	return r.findAll(ctx, bson.M{"userID": userID})
}

func (r *RatingRepository) findAll(ctx context.Context, filter bson.M) ([]domain.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: 1}})
	cursor, err := r.ratings.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ratings := make([]domain.Rating, 0)
	for cursor.Next(ctx) {
		var doc RatingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ratings = append(ratings, mapRatingDocument(doc))
	}
	return ratings, cursor.Err()
}

// Update applies the non-nil patch fields and stamps the edit time,
// returning the document as stored after the write. A guide-dog answer
// patched back to "don't know" clears the stored boolean.
func (r *RatingRepository) Update(ctx context.Context, id string, patch domain.RatingPatch, editedAt time.Time) (*domain.Rating, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}

	set := bson.M{"dateEdited": editedAt}
	unset := bson.M{}
	setScore(set, "braille", patch.Braille)
	setScore(set, "fontReadability", patch.FontReadability)
	setScore(set, "staffHelpfulness", patch.StaffHelpfulness)
	setScore(set, "navigability", patch.Navigability)
	if patch.GuideDogFriendly != nil {
		if value := patch.GuideDogFriendly.Bool(); value != nil {
			set["guideDogFriendly"] = *value
		} else {
			unset["guideDogFriendly"] = ""
		}
	}
	if patch.Comment != nil {
		set["comment"] = *patch.Comment
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc RatingDocument
	if err := r.ratings.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	rating := mapRatingDocument(doc)
	return &rating, nil
}

// Delete removes the rating and reports whether a document actually went
// away.
func (r *RatingRepository) Delete(ctx context.Context, id string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return false, nil
	}

	result, err := r.ratings.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// mapRatingDocument restores the domain model from its stored form.
func mapRatingDocument(doc RatingDocument) domain.Rating {
	return domain.Rating{
		ID:               doc.ID.Hex(),
		UserID:           doc.UserID,
		PlaceID:          doc.PlaceID,
		Braille:          scoreFromValue(doc.Braille),
		FontReadability:  scoreFromValue(doc.FontReadability),
		StaffHelpfulness: scoreFromValue(doc.StaffHelpfulness),
		Navigability:     scoreFromValue(doc.Navigability),
		GuideDogFriendly: domain.YesNoFromBool(doc.GuideDogFriendly),
		Comment:          doc.Comment,
		DateCreated:      doc.DateCreated,
		DateEdited:       doc.DateEdited,
	}
}

func scoreValue(score *domain.Score) *float64 {
	if score == nil {
		return nil
	}
	value := score.Float64()
	return &value
}

func scoreFromValue(value *float64) *domain.Score {
	if value == nil {
		return nil
	}
	score := domain.Score(*value)
	return &score
}

func setScore(set bson.M, field string, score *domain.Score) {
	if score != nil {
		set[field] = score.Float64()
	}
}
