// Package supabase implements the hosted backend: GoTrue for accounts and
// PostgREST for the assistant interaction log.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	URL        string
	AnonKey    string
	RedirectTo string
	HTTPClient *http.Client
}

var _ auth.Provider = (*Client)(nil)

// New returns a client for the project at projectURL. redirectTo is the
// public base URL used in confirmation and recovery links.
func New(projectURL, anonKey, redirectTo string) *Client {
	return &Client{
		URL:        strings.TrimRight(projectURL, "/"),
		AnonKey:    anonKey,
		RedirectTo: strings.TrimRight(redirectTo, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type userMetadata struct {
	FullName     string `json:"full_name,omitempty"`
	Department   string `json:"department,omitempty"`
	IsGovernment bool   `json:"is_government,omitempty"`
}

type user struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
}

func (u *user) identity() *models.Identity {
	return &models.Identity{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.UserMetadata.FullName,
		Department:   u.UserMetadata.Department,
		IsGovernment: u.UserMetadata.IsGovernment,
		AvatarURL:    models.AvatarURL(u.ID),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        user   `json:"user"`
}

// errorBody covers the shapes GoTrue and PostgREST use for errors.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorBody) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do sends a JSON request. A non-2xx response becomes an *auth.ProviderError
// carrying the server's message.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any, extra http.Header) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.AnonKey)
	if bearer == "" {
		bearer = c.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &auth.ProviderError{Message: "Unable to reach the authentication service", Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		msg := eb.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &auth.ProviderError{Message: msg, Status: resp.StatusCode}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &tok, nil)
	if err != nil {
		return nil, err
	}
	return &auth.Session{
		AccessToken: tok.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		Identity:    tok.User.identity(),
	}, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error) {
	in := struct {
		Email    string       `json:"email"`
		Password string       `json:"password"`
		Data     userMetadata `json:"data"`
	}{
		Email:    email,
		Password: password,
		Data: userMetadata{
			FullName:     profile.FullName,
			Department:   profile.Department,
			IsGovernment: profile.IsGovernment,
		},
	}
	path := "/auth/v1/signup"
	if c.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(c.RedirectTo+"/login")
	}

	// the user is returned bare while confirmation is pending, or wrapped
	// in a session when the project auto-confirms
	var out struct {
		user
		User *user `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, path, "", in, &out, nil); err != nil {
		return nil, err
	}
	if out.User != nil {
		return out.User.identity(), nil
	}
	return out.user.identity(), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	path := "/auth/v1/recover"
	if c.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(c.RedirectTo+"/reset-password")
	}
	return c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	return c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": password}, nil, nil)
}

func (c *Client) User(ctx context.Context, accessToken string) (*models.Identity, error) {
	var u user
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &u, nil); err != nil {
		return nil, err
	}
	return u.identity(), nil
}
