package public

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	accessapp "github.com/peer-app/peer-services/api/internal/accessibility/application"
	accessdomain "github.com/peer-app/peer-services/api/internal/accessibility/domain"
	"github.com/peer-app/peer-services/api/internal/infrastructure/places"
	"github.com/peer-app/peer-services/api/internal/interfaces/http/common"
	promodomain "github.com/peer-app/peer-services/api/internal/promotion/domain"
)

type fakeRatingService struct {
	submit   func(cmd accessapp.SubmitRatingCommand) (*accessdomain.Rating, error)
	edit     func(cmd accessapp.EditRatingCommand) (*accessdomain.Rating, error)
	delete   func(ratingID, requesterID string) (bool, error)
	byID     func(id string) (*accessdomain.Rating, error)
	forPlace func(placeID string) ([]accessdomain.Rating, error)
	fromUser func(userID string) ([]accessdomain.Rating, error)
	hasRated func(email, placeID string) (bool, error)
}

func (f *fakeRatingService) Submit(_ context.Context, cmd accessapp.SubmitRatingCommand) (*accessdomain.Rating, error) {
	return f.submit(cmd)
}

func (f *fakeRatingService) Edit(_ context.Context, cmd accessapp.EditRatingCommand) (*accessdomain.Rating, error) {
	return f.edit(cmd)
}

func (f *fakeRatingService) Delete(_ context.Context, ratingID, requesterID string) (bool, error) {
	return f.delete(ratingID, requesterID)
}

func (f *fakeRatingService) Recompute(_ context.Context, placeID string) (*accessdomain.Place, error) {
	return &accessdomain.Place{ID: placeID}, nil
}

func (f *fakeRatingService) ByID(_ context.Context, id string) (*accessdomain.Rating, error) {
	return f.byID(id)
}

func (f *fakeRatingService) ForPlace(_ context.Context, placeID string) ([]accessdomain.Rating, error) {
	return f.forPlace(placeID)
}

func (f *fakeRatingService) FromUser(_ context.Context, userID string) ([]accessdomain.Rating, error) {
	return f.fromUser(userID)
}

func (f *fakeRatingService) HasRated(_ context.Context, email, placeID string) (bool, error) {
	return f.hasRated(email, placeID)
}

type fakePlaceService struct {
	get    func(id string) (*accessdomain.Place, error)
	add    func(id string) (*accessdomain.Place, error)
	lookup func(ids []string) (map[string]accessdomain.Place, error)
}

func (f *fakePlaceService) Get(_ context.Context, id string) (*accessdomain.Place, error) {
	return f.get(id)
}

func (f *fakePlaceService) Add(_ context.Context, id string) (*accessdomain.Place, error) {
	return f.add(id)
}

func (f *fakePlaceService) Lookup(_ context.Context, ids []string) (map[string]accessdomain.Place, error) {
	return f.lookup(ids)
}

type fakeUserService struct {
	create func(cmd accessapp.CreateUserCommand) (*accessdomain.User, error)
	edit   func(cmd accessapp.EditUserCommand) (*accessdomain.User, error)
	byID   func(id string) (*accessdomain.User, error)
}

func (f *fakeUserService) Create(_ context.Context, cmd accessapp.CreateUserCommand) (*accessdomain.User, error) {
	return f.create(cmd)
}

func (f *fakeUserService) Edit(_ context.Context, cmd accessapp.EditUserCommand) (*accessdomain.User, error) {
	return f.edit(cmd)
}

func (f *fakeUserService) ByID(_ context.Context, id string) (*accessdomain.User, error) {
	return f.byID(id)
}

type fakeAuthService struct {
	login func(email, hash string) (string, *accessdomain.User, error)
}

func (f *fakeAuthService) Login(_ context.Context, email, hash string) (string, *accessdomain.User, error) {
	return f.login(email, hash)
}

func (f *fakeAuthService) Authenticate(_ context.Context, _ string) (*accessdomain.User, error) {
	return nil, accessapp.ErrUnauthorized
}

type fakePromotionService struct {
	promote     func(placeID string, settings promodomain.Settings) (*promodomain.Month, error)
	recordClick func(placeID string, spend float64) error
	decide      func(placeIDs []string) (*promodomain.Decision, error)
}

func (f *fakePromotionService) Promote(_ context.Context, placeID string, settings promodomain.Settings) (*promodomain.Month, error) {
	return f.promote(placeID, settings)
}

func (f *fakePromotionService) RecordClick(_ context.Context, placeID string, spend float64) error {
	return f.recordClick(placeID, spend)
}

func (f *fakePromotionService) Decide(_ context.Context, placeIDs []string) (*promodomain.Decision, error) {
	return f.decide(placeIDs)
}

type fakeProvider struct {
	nearby func(lat, lng float64) ([]places.Place, error)
	search func(text string) ([]places.Place, error)
}

func (f *fakeProvider) Nearby(_ context.Context, lat, lng float64) ([]places.Place, error) {
	return f.nearby(lat, lng)
}

func (f *fakeProvider) Search(_ context.Context, text string) ([]places.Place, error) {
	return f.search(text)
}

func (f *fakeProvider) Details(_ context.Context, placeID string) (*places.Details, error) {
	return &places.Details{Place: places.Place{PlaceID: placeID, Name: "Corner Cafe"}}, nil
}

func (f *fakeProvider) Photo(_ context.Context, _ string, _ int) ([]byte, string, error) {
	return []byte{0xFF, 0xD8}, "image/jpeg", nil
}

type handlerFixture struct {
	ratings    *fakeRatingService
	places     *fakePlaceService
	users      *fakeUserService
	auth       *fakeAuthService
	promotions *fakePromotionService
	provider   *fakeProvider
	router     chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		ratings:    &fakeRatingService{},
		places:     &fakePlaceService{},
		users:      &fakeUserService{},
		auth:       &fakeAuthService{},
		promotions: &fakePromotionService{},
		provider:   &fakeProvider{},
	}
	f.promotions.decide = func([]string) (*promodomain.Decision, error) { return nil, nil }

	handler := NewHandler(Config{
		Logger:         log.New(&bytes.Buffer{}, "", 0),
		RatingCommands: f.ratings,
		RatingQueries:  f.ratings,
		Places:         f.places,
		Users:          f.users,
		Auth:           f.auth,
		Promotions:     f.promotions,
		Provider:       f.provider,
	})

	// The middleware stands in for the server's token check: X-Test-User
	// names the principal, no header means unauthenticated.
	authMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-Test-User")
			if userID == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := common.ContextWithUser(r.Context(), common.AuthenticatedUser{ID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	router := chi.NewRouter()
	handler.Register(router, authMiddleware)
	f.router = router
	return f
}

func (f *handlerFixture) do(t *testing.T, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func TestAddRatingRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodPost, "/addRatingToPlace", "", map[string]any{"placeID": "p1"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAddRating(t *testing.T) {
	f := newHandlerFixture(t)

	var got accessapp.SubmitRatingCommand
	f.ratings.submit = func(cmd accessapp.SubmitRatingCommand) (*accessdomain.Rating, error) {
		got = cmd
		return &accessdomain.Rating{ID: "r1", UserID: cmd.UserID, PlaceID: cmd.PlaceID}, nil
	}

	res := f.do(t, http.MethodPost, "/addRatingToPlace", "u1", map[string]any{
		"placeID":          "p1",
		"braille":          4.0,
		"guideDogFriendly": true,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", res.Code, res.Body.String())
	}
	if got.UserID != "u1" || got.PlaceID != "p1" {
		t.Fatalf("unexpected command %+v", got)
	}
	if got.Braille == nil || got.Braille.Float64() != 4 {
		t.Fatalf("expected braille 4, got %v", got.Braille)
	}
	if got.GuideDogFriendly != accessdomain.Yes {
		t.Fatalf("expected guide dog yes, got %v", got.GuideDogFriendly)
	}
}

func TestAddRatingRejectsForeignUserID(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodPost, "/addRatingToPlace", "u1", map[string]any{
		"userID":  "u2",
		"placeID": "p1",
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAddRatingInvalidScore(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodPost, "/addRatingToPlace", "u1", map[string]any{
		"placeID": "p1",
		"braille": 4.3,
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAddRatingDuplicate(t *testing.T) {
	f := newHandlerFixture(t)

	f.ratings.submit = func(accessapp.SubmitRatingCommand) (*accessdomain.Rating, error) {
		return nil, accessapp.ErrDuplicateRating
	}

	res := f.do(t, http.MethodPost, "/addRatingToPlace", "u1", map[string]any{"placeID": "p1", "braille": 4.0})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestGetRatingNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	f.ratings.byID = func(string) (*accessdomain.Rating, error) {
		return nil, accessapp.ErrNotFound
	}

	res := f.do(t, http.MethodGet, "/getRating/abc", "", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteRatingOwnership(t *testing.T) {
	f := newHandlerFixture(t)

	f.ratings.delete = func(ratingID, requesterID string) (bool, error) {
		if requesterID != "owner" {
			return false, accessapp.ErrNotOwner
		}
		return true, nil
	}

	res := f.do(t, http.MethodDelete, "/deleteRating/r1", "intruder", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a non-owner, got %d", res.Code)
	}

	res = f.do(t, http.MethodDelete, "/deleteRating/r1", "owner", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d", res.Code)
	}
}

func TestGetPlaceSerializesNullAverages(t *testing.T) {
	f := newHandlerFixture(t)

	f.places.get = func(id string) (*accessdomain.Place, error) {
		return &accessdomain.Place{ID: id}, nil
	}

	res := f.do(t, http.MethodGet, "/getPlace/p1", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["_id"] != "p1" {
		t.Fatalf("unexpected id %v", payload["_id"])
	}
	value, present := payload["avgBraille"]
	if !present || value != nil {
		t.Fatalf("expected avgBraille to be an explicit null, got %v present=%v", value, present)
	}
}

func TestSearchPlacesAnnotates(t *testing.T) {
	f := newHandlerFixture(t)

	f.provider.search = func(string) ([]places.Place, error) {
		return []places.Place{
			{PlaceID: "p1", Name: "Corner Cafe"},
			{PlaceID: "p2", Name: "Library"},
		}, nil
	}
	avg := 4.0
	f.places.lookup = func(ids []string) (map[string]accessdomain.Place, error) {
		return map[string]accessdomain.Place{
			"p1": {ID: "p1", Averages: accessdomain.Averages{Braille: &avg}},
		}, nil
	}
	f.promotions.decide = func(ids []string) (*promodomain.Decision, error) {
		return &promodomain.Decision{PlaceID: "p2", SpendAmount: 0.51}, nil
	}

	res := f.do(t, http.MethodGet, "/searchPlaces?search=cafe&includeRatings=true", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	var payload []struct {
		PlaceID string `json:"place_id"`
		Ratings *struct {
			AvgBraille *float64 `json:"avgBraille"`
		} `json:"ratings"`
		IsPromoted  bool     `json:"isPromoted"`
		SpendAmount *float64 `json:"spendAmount"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 results, got %d", len(payload))
	}
	if payload[0].Ratings == nil || payload[0].Ratings.AvgBraille == nil || *payload[0].Ratings.AvgBraille != 4 {
		t.Fatalf("expected p1 annotated with braille average, got %+v", payload[0])
	}
	if !payload[1].IsPromoted || payload[1].SpendAmount == nil || *payload[1].SpendAmount != 0.51 {
		t.Fatalf("expected p2 promoted at 0.51, got %+v", payload[1])
	}
}

func TestNearbyPlacesRequiresCoordinates(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodGet, "/getNearbyPlaces?latitude=51.5", "", nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLogin(t *testing.T) {
	f := newHandlerFixture(t)

	f.auth.login = func(email, hash string) (string, *accessdomain.User, error) {
		if email == "ada@example.com" && hash == "h1" {
			return "token-1", &accessdomain.User{ID: "u1", Email: email}, nil
		}
		return "", nil, accessapp.ErrNotFound
	}

	res := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ada@example.com", "hash": "h1"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload loginResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Token != "token-1" || payload.User.ID != "u1" {
		t.Fatalf("unexpected login payload %+v", payload)
	}

	res = f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ada@example.com", "hash": "wrong"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", res.Code)
	}
}

func TestPromotePlaceValidatesSettings(t *testing.T) {
	f := newHandlerFixture(t)

	f.promotions.promote = func(placeID string, settings promodomain.Settings) (*promodomain.Month, error) {
		return &promodomain.Month{PlaceID: placeID}, nil
	}

	res := f.do(t, http.MethodPost, "/promotePlace", "", map[string]any{
		"placeID": "p1", "monthlyBudget": 10.0, "maxCPC": 0.0,
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a zero bid, got %d", res.Code)
	}

	res = f.do(t, http.MethodPost, "/promotePlace", "", map[string]any{
		"placeID": "p1", "monthlyBudget": 10.0, "maxCPC": 1.0,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code)
	}
}

func TestClickPromo(t *testing.T) {
	f := newHandlerFixture(t)

	var gotPlace string
	var gotSpend float64
	f.promotions.recordClick = func(placeID string, spend float64) error {
		gotPlace, gotSpend = placeID, spend
		return nil
	}

	res := f.do(t, http.MethodPost, "/clickPromo", "", map[string]any{"placeID": "p1", "spendAmount": 0.51})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if gotPlace != "p1" || gotSpend != 0.51 {
		t.Fatalf("unexpected click %s %v", gotPlace, gotSpend)
	}
}
