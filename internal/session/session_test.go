package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	identity  *models.Identity
	userErr   error
	signOuts  []string
	userCalls int
	onUser    func()
	expiresAt time.Time
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if password != "secret1" {
		return nil, &auth.ProviderError{Message: "Invalid login credentials"}
	}
	return &auth.Session{AccessToken: "tok-" + email, ExpiresAt: f.expiresAt, Identity: f.identity}, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error) {
	return &models.Identity{ID: "new", Email: email, FullName: profile.FullName}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, token string) error {
	f.signOuts = append(f.signOuts, token)
	return nil
}

func (f *fakeProvider) ResetPassword(ctx context.Context, email string) error { return nil }

func (f *fakeProvider) UpdatePassword(ctx context.Context, token, password string) error {
	if token == "" {
		return errors.New("no token")
	}
	return nil
}

func (f *fakeProvider) User(ctx context.Context, token string) (*models.Identity, error) {
	f.userCalls++
	if f.onUser != nil {
		f.onUser()
	}
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.identity, nil
}

func TestStoreSignInNotifiesListeners(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1", FullName: "Jane Cooper"}}
	s := NewStore(p)

	var seen []*models.Identity
	s.OnChange(func(id *models.Identity) { seen = append(seen, id) })

	id, err := s.SignIn(context.Background(), "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "tok-jane@example.com", s.Token())

	require.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Identity())
	assert.Equal(t, []string{"tok-jane@example.com"}, p.signOuts)

	require.Len(t, seen, 2)
	assert.Equal(t, "u-1", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestStoreSignInFailureKeepsSignedOut(t *testing.T) {
	s := NewStore(&fakeProvider{})
	_, err := s.SignIn(context.Background(), "jane@example.com", "wrong")
	var perr *auth.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Invalid login credentials", perr.Message)
	assert.Nil(t, s.Identity())
}

func TestRestoreClearsLoading(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1"}}
	s := NewStore(p)

	var loadingDuringCall bool
	p.onUser = func() { loadingDuringCall = s.Loading() }

	require.NoError(t, s.Restore(context.Background(), "tok"))
	assert.True(t, loadingDuringCall)
	assert.False(t, s.Loading())
	assert.Equal(t, "u-1", s.Identity().ID)

	p.userErr = errors.New("expired")
	assert.Error(t, s.Restore(context.Background(), "tok"))
	assert.False(t, s.Loading(), "loading must be cleared after a failure")
	assert.Nil(t, s.Identity())
}

func TestUpdatePasswordRequiresToken(t *testing.T) {
	s := NewStore(&fakeProvider{})
	assert.ErrorIs(t, s.UpdatePassword(context.Background(), "", "newpass"), ErrNotSignedIn)
	assert.NoError(t, s.UpdatePassword(context.Background(), "recovery-token", "newpass"))
}

func TestManagerLookupAndEnd(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1"}}
	m := NewManager(p)

	var ended []string
	m.OnSignOut(func(id *models.Identity) { ended = append(ended, id.ID) })

	s := m.New()
	_, err := s.SignIn(context.Background(), "jane@example.com", "secret1")
	require.NoError(t, err)
	m.Track(s)

	got, err := m.Lookup(context.Background(), s.Token())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 0, p.userCalls, "tracked sessions are not restored again")

	// unknown tokens are restored from the provider
	other, err := m.Lookup(context.Background(), "tok-from-earlier-process")
	require.NoError(t, err)
	assert.Equal(t, 1, p.userCalls)
	assert.Equal(t, "u-1", other.Identity().ID)

	require.NoError(t, m.End(context.Background(), s))
	assert.Equal(t, []string{"u-1"}, ended)

	_, err = m.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestManagerDropsExpiredSession(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1"}, expiresAt: time.Now().Add(-time.Minute)}
	m := NewManager(p)
	var ended []string
	m.OnSignOut(func(id *models.Identity) { ended = append(ended, id.ID) })

	s := m.New()
	_, err := s.SignIn(context.Background(), "jane@example.com", "secret1")
	require.NoError(t, err)
	m.Track(s)

	p.userErr = &auth.ProviderError{Message: "token expired"}
	_, err = m.Lookup(context.Background(), s.Token())
	require.Error(t, err)
	assert.Equal(t, 1, p.userCalls, "an expired session is checked with the provider again")
	assert.Equal(t, []string{"u-1"}, ended)

	// the stale entry is gone: the next lookup asks the provider again
	_, err = m.Lookup(context.Background(), s.Token())
	require.Error(t, err)
	assert.Equal(t, 2, p.userCalls)
}

func TestRestoreReadsTokenExpiry(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1"}}
	m := NewManager(p)
	tokens := auth.NewTokenService("secret", "instamunicipal")

	live, exp, err := tokens.Issue("u-1", "jane@example.com", auth.PurposeAccess, time.Hour)
	require.NoError(t, err)
	s, err := m.Lookup(context.Background(), live)
	require.NoError(t, err)
	assert.WithinDuration(t, exp, s.ExpiresAt(), time.Second)

	stale, _, err := tokens.Issue("u-1", "jane@example.com", auth.PurposeAccess, -time.Minute)
	require.NoError(t, err)
	_, err = m.Lookup(context.Background(), stale)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSignOutHooksWaitForLastSession(t *testing.T) {
	p := &fakeProvider{identity: &models.Identity{ID: "u-1"}}
	m := NewManager(p)
	var ended []string
	m.OnSignOut(func(id *models.Identity) { ended = append(ended, id.ID) })

	laptop := m.New()
	_, err := laptop.SignIn(context.Background(), "jane@example.com", "secret1")
	require.NoError(t, err)
	m.Track(laptop)
	phone := m.New()
	_, err = phone.SignIn(context.Background(), "jane@city.example", "secret1")
	require.NoError(t, err)
	m.Track(phone)

	require.NoError(t, m.End(context.Background(), laptop))
	assert.Empty(t, ended, "another session of u-1 is still live")

	got, err := m.Lookup(context.Background(), phone.Token())
	require.NoError(t, err)
	assert.Same(t, phone, got)

	require.NoError(t, m.End(context.Background(), phone))
	assert.Equal(t, []string{"u-1"}, ended)
}
