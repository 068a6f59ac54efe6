package application

import (
	"context"
	"errors"
	"time"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// Sentinel errors shared by the application services and mapped to HTTP
// statuses at the interface layer. Anything not matching one of these is an
// infrastructure failure and must not be described to clients.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateRating = errors.New("rating already exists for this user and place")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNoChange        = errors.New("no change")
	ErrNotOwner        = errors.New("not the owner")
	ErrUnauthorized    = errors.New("unauthorized")
)

// RatingRepository is the port over the persistent ratings collection.
// Insert must return ErrDuplicateRating when the (user, place) unique
// constraint rejects the write.
type RatingRepository interface {
	Insert(ctx context.Context, rating *domain.Rating) error
	FindByID(ctx context.Context, id string) (*domain.Rating, error)
	FindByUserAndPlace(ctx context.Context, userID, placeID string) (*domain.Rating, error)
	FindByPlace(ctx context.Context, placeID string) ([]domain.Rating, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Rating, error)
	Update(ctx context.Context, id string, patch domain.RatingPatch, editedAt time.Time) (*domain.Rating, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PlaceRepository is the port over the persistent places collection.
type PlaceRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Place, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.Place, error)
	Insert(ctx context.Context, place *domain.Place) error
	// EnsureByID creates the place with all-null averages when it does not
	// exist yet and returns the stored document either way.
	EnsureByID(ctx context.Context, id string) (*domain.Place, error)
	UpdateAverages(ctx context.Context, placeID string, avgs domain.Averages) error
}

// UserRepository is the port over the persistent users collection.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmailAndHash(ctx context.Context, email, hash string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	SetToken(ctx context.Context, id, token string, issuedAt time.Time) error
}

// SubmitRatingCommand carries one parsed rating submission.
type SubmitRatingCommand struct {
	UserID           string
	PlaceID          string
	Braille          *domain.Score
	FontReadability  *domain.Score
	StaffHelpfulness *domain.Score
	Navigability     *domain.Score
	GuideDogFriendly domain.YesNo
	Comment          *string
}

// EditRatingCommand carries a parsed partial edit. RequesterID must match
// the rating's owner.
type EditRatingCommand struct {
	RatingID    string
	RequesterID string
	Patch       domain.RatingPatch
}

// RatingCommandService drives every rating mutation. Each successful
// mutation synchronously recomputes the owning place's averages before
// returning, so readers observe fresh aggregates immediately.
type RatingCommandService interface {
	Submit(ctx context.Context, cmd SubmitRatingCommand) (*domain.Rating, error)
	Edit(ctx context.Context, cmd EditRatingCommand) (*domain.Rating, error)
	Delete(ctx context.Context, ratingID, requesterID string) (bool, error)
	Recompute(ctx context.Context, placeID string) (*domain.Place, error)
}

// RatingQueryService provides the read-only rating use cases.
type RatingQueryService interface {
	ByID(ctx context.Context, id string) (*domain.Rating, error)
	ForPlace(ctx context.Context, placeID string) ([]domain.Rating, error)
	FromUser(ctx context.Context, userID string) ([]domain.Rating, error)
	HasRated(ctx context.Context, email, placeID string) (bool, error)
}

// PlaceService provides place reads plus the lazy and explicit creation
// paths.
type PlaceService interface {
	Get(ctx context.Context, id string) (*domain.Place, error)
	Add(ctx context.Context, id string) (*domain.Place, error)
	Lookup(ctx context.Context, ids []string) (map[string]domain.Place, error)
}

// CreateUserCommand carries a validated account registration.
type CreateUserCommand struct {
	FirstName   string
	LastName    string
	Email       domain.Email
	Hash        string
	IsBlindMode bool
}

// EditUserCommand carries a parsed partial account update.
type EditUserCommand struct {
	UserID      string
	RequesterID string
	Patch       domain.UserPatch
}

// UserService provides the account collaborator surface.
type UserService interface {
	Create(ctx context.Context, cmd CreateUserCommand) (*domain.User, error)
	Edit(ctx context.Context, cmd EditUserCommand) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthService issues per-user login tokens and authenticates requests. A
// request is authenticated only when the presented token both verifies and
// equals the token currently on file for its subject.
type AuthService interface {
	Login(ctx context.Context, email, hash string) (string, *domain.User, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
