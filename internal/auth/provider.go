package auth

import (
	"context"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
)

// Session is an authenticated session issued by a Provider.
type Session struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Identity    *models.Identity `json:"user"`
}

// Provider is the external authentication backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
	// UpdatePassword accepts a session or recovery token.
	UpdatePassword(ctx context.Context, accessToken, password string) error
	User(ctx context.Context, accessToken string) (*models.Identity, error)
}

// ProviderError is a failure reported by the provider. Message is shown to the user as is.
type ProviderError struct {
	Message string
	Status  int
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
