package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
}

// NewAuthService builds the token service over the user repository.
func NewAuthService(users UserRepository, cfg AuthConfig) *authService {
	return &authService{users: users, cfg: cfg, now: time.Now}
}

type authService struct {
	users UserRepository
	cfg   AuthConfig
	now   func() time.Time
}

// Login verifies the email/hash pair, issues a fresh signed token and
// persists it on the user document. Any token issued earlier for the same
// account stops authenticating at that point.
func (s *authService) Login(ctx context.Context, email, hash string) (string, *domain.User, error) {
	user, err := s.users.FindByEmailAndHash(ctx, email, hash)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", nil, err
	}

	if err := s.users.SetToken(ctx, user.ID, token, now); err != nil {
		return "", nil, err
	}
	user.Token = &token
	user.DateTokenCreated = &now
	return token, user, nil
}

// Authenticate verifies the token signature and claims, then requires the
// presented token to equal the token currently on file for its subject.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.cfg.Secret, nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if user.Token == nil || *user.Token != tokenString {
		return nil, ErrUnauthorized
	}
	return user, nil
}
