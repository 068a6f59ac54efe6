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

// UserRepository persists accounts in MongoDB. The unique index on email is
// what actually enforces one account per address; Insert maps its violation
// to ErrAlreadyExists.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository binds the repository to its collection.
func NewUserRepository(db *mongo.Database, collection string) *UserRepository {
	return &UserRepository{users: db.Collection(collection)}
}

// Insert registers a new account and writes the assigned id back.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	doc := UserDocument{
		ID:          primitive.NewObjectID(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Hash:        user.Hash,
		IsBlindMode: user.IsBlindMode,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return application.ErrAlreadyExists
		}
		return err
	}
	user.ID = doc.ID.Hex()
	return nil
}

// FindByID loads one account. Malformed ids are reported as not found.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByEmail loads the account registered for the address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.TrimSpace(email)})
}

// FindByEmailAndHash loads the account only when the submitted digest
// matches. A wrong digest is indistinguishable from an unknown address.
func (r *UserRepository) FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.TrimSpace(email), "hash": hash})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc UserDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// Update applies the non-nil patch fields and returns the document as
// stored after the write.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, application.ErrNotFound
	}

	set := bson.M{}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = patch.Email.String()
	}
	if patch.Hash != nil {
		set["hash"] = *patch.Hash
	}
	if patch.IsBlindMode != nil {
		set["isBlindMode"] = *patch.IsBlindMode
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc UserDocument
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, application.ErrAlreadyExists
		}
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// SetToken replaces the login token on file together with its issue time.
func (r *UserRepository) SetToken(ctx context.Context, id, token string, issuedAt time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return application.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"token": token, "dateTokenCreated": issuedAt}}
	result, err := r.users.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return application.ErrNotFound
	}
	return nil
}

// mapUserDocument restores the domain model from its stored form.
func mapUserDocument(doc UserDocument) domain.User {
	return domain.User{
		ID:               doc.ID.Hex(),
		FirstName:        doc.FirstName,
		LastName:         doc.LastName,
		Email:            doc.Email,
		Hash:             doc.Hash,
		IsBlindMode:      doc.IsBlindMode,
		Token:            doc.Token,
		DateTokenCreated: doc.DateTokenCreated,
	}
}
