package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anonKey = "anon-key"

type fakeProject struct {
	t        *testing.T
	signups  []map[string]any
	inserted []interactionRow
	query    string
}

func (f *fakeProject) router() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(f.t, anonKey, req.Header.Get("apikey"))
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(f.t, "password", req.URL.Query().Get("grant_type"))
		var in map[string]string
		json.NewDecoder(req.Body).Decode(&in)
		if in["password"] != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
			return
		}
		io.WriteString(w, `{"access_token":"jwt-1","expires_in":3600,"user":{"id":"u-1","email":"officer@city.gov","user_metadata":{"full_name":"Leslie Knope","department":"parks-rec","is_government":true}}}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]any
		json.NewDecoder(req.Body).Decode(&in)
		f.signups = append(f.signups, in)
		if in["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"code":422,"msg":"User already registered"}`)
			return
		}
		io.WriteString(w, `{"id":"u-2","email":"`+in["email"].(string)+`","user_metadata":{"full_name":"Jane Cooper"}}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"invalid JWT"}`)
			return
		}
		if req.Method == http.MethodPut {
			io.WriteString(w, `{"id":"u-1"}`)
			return
		}
		io.WriteString(w, `{"id":"u-1","email":"officer@city.gov","user_metadata":{"full_name":"Leslie Knope","is_government":true}}`)
	}).Methods(http.MethodGet, http.MethodPut)
	r.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/recover", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(f.t, "https://app.example.com/reset-password", req.URL.Query().Get("redirect_to"))
		io.WriteString(w, `{}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/rest/v1/ai_interactions", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(f.t, "Bearer jwt-1", req.Header.Get("Authorization"))
		if req.Method == http.MethodPost {
			var row interactionRow
			json.NewDecoder(req.Body).Decode(&row)
			f.inserted = append(f.inserted, row)
			w.WriteHeader(http.StatusCreated)
			return
		}
		f.query = req.URL.RawQuery
		io.WriteString(w, `[{"prompt":"b","response":"2","created_at":"2024-05-01T10:00:00Z"},{"prompt":"a","response":"1","created_at":"2024-05-01T09:00:00Z"}]`)
	}).Methods(http.MethodGet, http.MethodPost)
	return r
}

func newTestClient(t *testing.T) (*Client, *fakeProject) {
	f := &fakeProject{t: t}
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)
	return New(srv.URL, anonKey, "https://app.example.com"), f
}

func TestSignIn(t *testing.T) {
	c, _ := newTestClient(t)
	s, err := c.SignIn(context.Background(), "officer@city.gov", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.True(t, s.ExpiresAt.After(time.Now()))
	assert.Equal(t, "Leslie Knope", s.Identity.FullName)
	assert.True(t, s.Identity.IsGovernment)

	_, err = c.SignIn(context.Background(), "officer@city.gov", "wrong")
	var perr *auth.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Invalid login credentials", perr.Message)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
}

func TestSignUpSendsMetadata(t *testing.T) {
	c, f := newTestClient(t)
	id, err := c.SignUp(context.Background(), "jane@example.com", "secret1", models.Profile{FullName: "Jane Cooper", Department: "public-works"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", id.ID)
	assert.Equal(t, "Jane Cooper", id.FullName)

	require.Len(t, f.signups, 1)
	data := f.signups[0]["data"].(map[string]any)
	assert.Equal(t, "public-works", data["department"])

	_, err = c.SignUp(context.Background(), "taken@example.com", "secret1", models.Profile{})
	assert.EqualError(t, err, "User already registered")
}

func TestUserAndPasswordUpdate(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	id, err := c.User(ctx, "jwt-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)

	_, err = c.User(ctx, "stale")
	assert.EqualError(t, err, "invalid JWT")

	assert.NoError(t, c.UpdatePassword(ctx, "jwt-1", "newpass"))
	assert.NoError(t, c.SignOut(ctx, "jwt-1"))
	assert.NoError(t, c.ResetPassword(ctx, "jane@example.com"))
}

func TestInteractions(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()
	log := c.Interactions("jwt-1")

	require.NoError(t, log.SaveInteraction(ctx, models.AIInteraction{UserID: "u-1", Prompt: "p", Response: "r"}))
	require.Len(t, f.inserted, 1)
	assert.Equal(t, "u-1", f.inserted[0].UserID)
	assert.False(t, f.inserted[0].CreatedAt.IsZero())

	got, err := log.RecentInteractions(ctx, "u-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Prompt)
	assert.Contains(t, f.query, "order=created_at.desc")
	assert.Contains(t, f.query, "user_id=eq.u-1")
	assert.Contains(t, f.query, "limit=10")
}
