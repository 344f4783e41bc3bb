package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", "instamunicipal")

	token, expiresAt, err := ts.Issue("u-1", "jane@example.com", PurposeAccess, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ts.Parse(token, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenRejections(t *testing.T) {
	ts := NewTokenService("secret", "instamunicipal")
	token, _, err := ts.Issue("u-1", "jane@example.com", PurposeRecovery, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		service  *TokenService
		token    string
		purposes []string
	}{
		{"wrong purpose", ts, token, []string{PurposeAccess}},
		{"wrong secret", NewTokenService("other", "instamunicipal"), token, []string{PurposeRecovery}},
		{"wrong issuer", NewTokenService("secret", "elsewhere"), token, []string{PurposeRecovery}},
		{"garbage", ts, "not-a-token", []string{PurposeRecovery}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.service.Parse(tt.token, tt.purposes...)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenService("secret", "instamunicipal")
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, _, err := expired.Issue("u-1", "jane@example.com", PurposeAccess, time.Hour)
		require.NoError(t, err)
		_, err = ts.Parse(old, PurposeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenExpiry(t *testing.T) {
	ts := NewTokenService("secret", "instamunicipal")
	token, expiresAt, err := ts.Issue("u-1", "jane@example.com", PurposeAccess, -time.Minute)
	require.NoError(t, err)

	// expired tokens still report their expiry
	assert.WithinDuration(t, expiresAt, TokenExpiry(token), time.Second)
	assert.True(t, TokenExpiry("opaque-token").IsZero())
	assert.True(t, TokenExpiry("").IsZero())
}
