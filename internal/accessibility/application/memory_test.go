package application

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// In-memory ports for service tests. They mirror the store contracts,
// including ErrDuplicateRating from the unique (user, place) constraint.

type memoryRatings struct {
	mu      sync.Mutex
	seq     int
	ratings map[string]domain.Rating
}

func newMemoryRatings() *memoryRatings {
	return &memoryRatings{ratings: make(map[string]domain.Rating)}
}

func (m *memoryRatings) Insert(_ context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.UserID == rating.UserID && r.PlaceID == rating.PlaceID {
			return ErrDuplicateRating
		}
	}
	m.seq++
	rating.ID = "r" + strconv.Itoa(m.seq)
	m.ratings[rating.ID] = *rating
	return nil
}

func (m *memoryRatings) FindByID(_ context.Context, id string) (*domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memoryRatings) FindByUserAndPlace(_ context.Context, userID, placeID string) (*domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.UserID == userID && r.PlaceID == placeID {
			found := r
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRatings) FindByPlace(_ context.Context, placeID string) ([]domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Rating, 0)
	for _, r := range m.ratings {
		if r.PlaceID == placeID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *memoryRatings) FindByUser(_ context.Context, userID string) ([]domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Rating, 0)
	for _, r := range m.ratings {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *memoryRatings) Update(_ context.Context, id string, patch domain.RatingPatch, editedAt time.Time) (*domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Braille != nil {
		r.Braille = patch.Braille
	}
	if patch.FontReadability != nil {
		r.FontReadability = patch.FontReadability
	}
	if patch.StaffHelpfulness != nil {
		r.StaffHelpfulness = patch.StaffHelpfulness
	}
	if patch.Navigability != nil {
		r.Navigability = patch.Navigability
	}
	if patch.GuideDogFriendly != nil {
		r.GuideDogFriendly = *patch.GuideDogFriendly
	}
	if patch.Comment != nil {
		r.Comment = patch.Comment
	}
	r.DateEdited = &editedAt
	m.ratings[id] = r
	return &r, nil
}

func (m *memoryRatings) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ratings[id]; !ok {
		return false, nil
	}
	delete(m.ratings, id)
	return true, nil
}

type memoryPlaces struct {
	mu             sync.Mutex
	places         map[string]domain.Place
	failNextUpdate error
}

func newMemoryPlaces(ids ...string) *memoryPlaces {
	m := &memoryPlaces{places: make(map[string]domain.Place)}
	for _, id := range ids {
		m.places[id] = domain.Place{ID: id}
	}
	return m
}

func (m *memoryPlaces) FindByID(_ context.Context, id string) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.places[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memoryPlaces) FindByIDs(_ context.Context, ids []string) (map[string]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]domain.Place)
	for _, id := range ids {
		if p, ok := m.places[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (m *memoryPlaces) Insert(_ context.Context, place *domain.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[place.ID]; ok {
		return ErrAlreadyExists
	}
	m.places[place.ID] = *place
	return nil
}

func (m *memoryPlaces) EnsureByID(_ context.Context, id string) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.places[id]; ok {
		return &p, nil
	}
	p := domain.Place{ID: id}
	m.places[id] = p
	return &p, nil
}

func (m *memoryPlaces) UpdateAverages(_ context.Context, placeID string, avgs domain.Averages) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextUpdate != nil {
		err := m.failNextUpdate
		m.failNextUpdate = nil
		return err
	}
	p, ok := m.places[placeID]
	if !ok {
		return ErrNotFound
	}
	p.Averages = avgs
	m.places[placeID] = p
	return nil
}

type memoryUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]domain.User)}
}

func (m *memoryUsers) add(user domain.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = "u" + strconv.Itoa(m.seq)
	m.users[user.ID] = user
	return user.ID
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryUsers) FindByEmailAndHash(_ context.Context, email, hash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.Hash == hash {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryUsers) Insert(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrAlreadyExists
		}
	}
	m.seq++
	user.ID = "u" + strconv.Itoa(m.seq)
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUsers) Update(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Email != nil {
		u.Email = patch.Email.String()
	}
	if patch.Hash != nil {
		u.Hash = *patch.Hash
	}
	if patch.IsBlindMode != nil {
		u.IsBlindMode = *patch.IsBlindMode
	}
	m.users[id] = u
	return &u, nil
}

func (m *memoryUsers) SetToken(_ context.Context, id, token string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Token = &token
	u.DateTokenCreated = &issuedAt
	m.users[id] = u
	return nil
}
