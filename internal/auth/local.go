package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const recoveryTTL = time.Hour

// Mailer delivers the links issued during registration and recovery.
type Mailer interface {
	SendConfirmation(to, name, link string) error
	SendRecovery(to, link string) error
}

// LocalProvider authenticates against the profiles table of a Store.
type LocalProvider struct {
	Store     store.Store
	Tokens    *TokenService
	Mailer    Mailer
	PublicURL string
	TokenTTL  time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(s store.Store, tokens *TokenService, mailer Mailer, publicURL string, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LocalProvider{
		Store:     s,
		Tokens:    tokens,
		Mailer:    mailer,
		PublicURL: strings.TrimRight(publicURL, "/"),
		TokenTTL:  ttl,
		revoked:   make(map[string]time.Time),
	}
}

func invalidCredentials() error {
	return &ProviderError{Message: "Invalid login credentials", Status: http.StatusBadRequest}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.Store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, &ProviderError{Message: "Unable to sign in right now", Status: http.StatusInternalServerError, Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	if !user.IsVerified {
		return nil, &ProviderError{Message: "Email not confirmed", Status: http.StatusBadRequest}
	}

	token, expiresAt, err := p.Tokens.Issue(user.ID, user.Email, PurposeAccess, p.TokenTTL)
	if err != nil {
		return nil, &ProviderError{Message: "Unable to sign in right now", Status: http.StatusInternalServerError, Err: err}
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, Identity: user.Identity()}, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if _, err := p.Store.GetUserByEmail(ctx, email); err == nil {
		return nil, &ProviderError{Message: "User already registered", Status: http.StatusUnprocessableEntity}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, &ProviderError{Message: "Unable to register right now", Status: http.StatusInternalServerError, Err: err}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &ProviderError{Message: "Unable to register right now", Status: http.StatusInternalServerError, Err: err}
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Password:     string(hashed),
		FullName:     profile.FullName,
		Department:   profile.Department,
		IsGovernment: profile.IsGovernment,
	}
	verification := uuid.NewString()
	if err := p.Store.CreateUser(ctx, user, verification); err != nil {
		return nil, &ProviderError{Message: "User already registered", Status: http.StatusUnprocessableEntity, Err: err}
	}

	if p.Mailer != nil {
		link := p.PublicURL + "/auth/confirm?token=" + url.QueryEscape(verification)
		if err := p.Mailer.SendConfirmation(user.Email, user.FullName, link); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send confirmation email")
		}
	}
	return user.Identity(), nil
}

func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.Tokens.Parse(accessToken, PurposeAccess)
	if err != nil {
		// already unusable
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for id, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, id)
		}
	}
	p.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (p *LocalProvider) isRevoked(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[id]
	return ok
}

func (p *LocalProvider) ResetPassword(ctx context.Context, email string) error {
	user, err := p.Store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		// do not reveal which addresses have accounts
		return nil
	}
	if err != nil {
		return &ProviderError{Message: "Unable to send reset link right now", Status: http.StatusInternalServerError, Err: err}
	}

	token, _, err := p.Tokens.Issue(user.ID, user.Email, PurposeRecovery, recoveryTTL)
	if err != nil {
		return &ProviderError{Message: "Unable to send reset link right now", Status: http.StatusInternalServerError, Err: err}
	}
	if p.Mailer == nil {
		return nil
	}
	link := p.PublicURL + "/reset-password#access_token=" + token + "&type=recovery"
	if err := p.Mailer.SendRecovery(user.Email, link); err != nil {
		return &ProviderError{Message: "Unable to send reset link right now", Status: http.StatusBadGateway, Err: err}
	}
	return nil
}

func (p *LocalProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	claims, err := p.Tokens.Parse(accessToken, PurposeAccess, PurposeRecovery)
	if err != nil || p.isRevoked(claims.ID) {
		return &ProviderError{Message: "Invalid or expired password reset link", Status: http.StatusUnauthorized, Err: ErrInvalidToken}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Message: "Unable to update password", Status: http.StatusInternalServerError, Err: err}
	}
	if err := p.Store.UpdatePassword(ctx, claims.Subject, string(hashed)); err != nil {
		return &ProviderError{Message: "Unable to update password", Status: http.StatusInternalServerError, Err: err}
	}
	if claims.Purpose == PurposeRecovery {
		// recovery links are single use
		p.mu.Lock()
		p.revoked[claims.ID] = claims.ExpiresAt.Time
		p.mu.Unlock()
	}
	return nil
}

func (p *LocalProvider) User(ctx context.Context, accessToken string) (*models.Identity, error) {
	claims, err := p.Tokens.Parse(accessToken, PurposeAccess)
	if err != nil || p.isRevoked(claims.ID) {
		return nil, &ProviderError{Message: "Invalid session", Status: http.StatusUnauthorized, Err: ErrInvalidToken}
	}
	user, err := p.Store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, &ProviderError{Message: "Invalid session", Status: http.StatusUnauthorized, Err: err}
	}
	return user.Identity(), nil
}

// Confirm marks the account owning the verification token as confirmed.
func (p *LocalProvider) Confirm(ctx context.Context, token string) error {
	if err := p.Store.VerifyUser(ctx, token); err != nil {
		return &ProviderError{Message: "Invalid or expired confirmation link", Status: http.StatusBadRequest, Err: err}
	}
	return nil
}
