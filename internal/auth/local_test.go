package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	confirmations []string
	recoveries    []string
}

func (m *fakeMailer) SendConfirmation(to, name, link string) error {
	m.confirmations = append(m.confirmations, link)
	return nil
}

func (m *fakeMailer) SendRecovery(to, link string) error {
	m.recoveries = append(m.recoveries, link)
	return nil
}

func newTestProvider(t *testing.T) (*LocalProvider, *fakeMailer) {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	mailer := &fakeMailer{}
	return NewLocalProvider(s, NewTokenService("secret", "instamunicipal"), mailer, "http://localhost:8080/", time.Hour), mailer
}

func confirmFromLink(t *testing.T, p *LocalProvider, link string) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.NoError(t, p.Confirm(context.Background(), u.Query().Get("token")))
}

func providerMessage(t *testing.T, err error) string {
	t.Helper()
	var perr *ProviderError
	require.True(t, errors.As(err, &perr), "expected ProviderError, got %v", err)
	return perr.Message
}

func TestSignUpAndSignIn(t *testing.T) {
	p, mailer := newTestProvider(t)
	ctx := context.Background()

	id, err := p.SignUp(ctx, "officer@city.gov", "hunter22", models.Profile{FullName: "Leslie Knope", Department: "parks-rec", IsGovernment: true})
	require.NoError(t, err)
	assert.True(t, id.IsGovernment)
	require.Len(t, mailer.confirmations, 1)
	assert.True(t, strings.HasPrefix(mailer.confirmations[0], "http://localhost:8080/auth/confirm?token="))

	_, err = p.SignIn(ctx, "officer@city.gov", "hunter22")
	assert.Equal(t, "Email not confirmed", providerMessage(t, err))

	confirmFromLink(t, p, mailer.confirmations[0])

	sess, err := p.SignIn(ctx, "officer@city.gov", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Leslie Knope", sess.Identity.FullName)

	restored, err := p.User(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.ID, restored.ID)

	_, err = p.SignUp(ctx, "officer@city.gov", "another1", models.Profile{})
	assert.Equal(t, "User already registered", providerMessage(t, err))
}

func TestSignInInvalidCredentials(t *testing.T) {
	p, mailer := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "jane@example.com", "secret1", models.Profile{FullName: "Jane"})
	require.NoError(t, err)
	confirmFromLink(t, p, mailer.confirmations[0])

	_, err = p.SignIn(ctx, "jane@example.com", "wrong-password")
	assert.Equal(t, "Invalid login credentials", providerMessage(t, err))

	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, "Invalid login credentials", providerMessage(t, err))
}

func TestSignOutRevokesToken(t *testing.T) {
	p, mailer := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "jane@example.com", "secret1", models.Profile{})
	require.NoError(t, err)
	confirmFromLink(t, p, mailer.confirmations[0])
	sess, err := p.SignIn(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, sess.AccessToken))
	_, err = p.User(ctx, sess.AccessToken)
	assert.Error(t, err)

	// signing out twice is harmless
	assert.NoError(t, p.SignOut(ctx, sess.AccessToken))
}

func TestResetAndUpdatePassword(t *testing.T) {
	p, mailer := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "jane@example.com", "secret1", models.Profile{})
	require.NoError(t, err)
	confirmFromLink(t, p, mailer.confirmations[0])

	// unknown addresses succeed silently
	require.NoError(t, p.ResetPassword(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.recoveries)

	require.NoError(t, p.ResetPassword(ctx, "jane@example.com"))
	require.Len(t, mailer.recoveries, 1)

	u, err := url.Parse(mailer.recoveries[0])
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", u.Path)
	fragment, err := url.ParseQuery(u.Fragment)
	require.NoError(t, err)
	token := fragment.Get("access_token")
	require.NotEmpty(t, token)

	// a recovery token is not a session
	_, err = p.User(ctx, token)
	assert.Error(t, err)

	require.NoError(t, p.UpdatePassword(ctx, token, "newpass1"))
	assert.Error(t, p.UpdatePassword(ctx, token, "again12"), "recovery link is single use")

	_, err = p.SignIn(ctx, "jane@example.com", "secret1")
	assert.Error(t, err)
	_, err = p.SignIn(ctx, "jane@example.com", "newpass1")
	assert.NoError(t, err)
}
