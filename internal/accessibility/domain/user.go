package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is an account holder. The Hash field stores the client-submitted
// password digest as given; this service never sees plaintext passwords.
// Token is the opaque login token currently on file; re-login replaces it.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Hash             string
	IsBlindMode      bool
	Token            *string
	DateTokenCreated *time.Time
}

// Email is a validated, trimmed address.
type Email string

func NewEmail(value string) (Email, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("email is required")
	}
	if len(trimmed) > 254 {
		return "", fmt.Errorf("email too long")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	return Email(trimmed), nil
}

func (e Email) String() string {
	return string(e)
}

// UserPatch is a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	FirstName   *string
	LastName    *string
	Email       *Email
	Hash        *string
	IsBlindMode *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Hash == nil && p.IsBlindMode == nil
}
