package handlers

import (
	"context"
	"net/http"

	"github.com/pliu/instamunicipal/internal/forms"
	"github.com/pliu/instamunicipal/internal/middleware"
	"github.com/pliu/instamunicipal/internal/session"
	"github.com/rs/zerolog/log"
)

// Confirmer activates accounts from the emailed confirmation link.
type Confirmer interface {
	Confirm(ctx context.Context, token string) error
}

type AuthHandler struct {
	Sessions  *session.Manager
	Confirmer Confirmer
}

type loginResponse struct {
	*forms.Outcome
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) signedIn(w http.ResponseWriter, s *session.Store, out *forms.Outcome) {
	h.Sessions.Track(s)
	middleware.SetToken(w, s.Token(), s.ExpiresAt())
	log.Info().Str("user_id", out.Identity.ID).Msg("signed in")
	writeJSON(w, http.StatusOK, loginResponse{Outcome: out, AccessToken: s.Token()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var f forms.PublicLogin
	if !decode(w, r, &f) {
		return
	}
	s := h.Sessions.New()
	out, err := forms.SubmitPublicLogin(r.Context(), s, f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	h.signedIn(w, s, out)
}

func (h *AuthHandler) GovernmentLogin(w http.ResponseWriter, r *http.Request) {
	var f forms.GovernmentLogin
	if !decode(w, r, &f) {
		return
	}
	s := h.Sessions.New()
	out, err := forms.SubmitGovernmentLogin(r.Context(), s, f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	h.signedIn(w, s, out)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var f forms.Registration
	if !decode(w, r, &f) {
		return
	}
	out, err := forms.SubmitRegistration(r.Context(), h.Sessions.New(), f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *AuthHandler) GovernmentRegister(w http.ResponseWriter, r *http.Request) {
	var f forms.GovernmentRegistration
	if !decode(w, r, &f) {
		return
	}
	out, err := forms.SubmitGovernmentRegistration(r.Context(), h.Sessions.New(), f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var f forms.ForgotPassword
	if !decode(w, r, &f) {
		return
	}
	out, err := forms.SubmitForgotPassword(r.Context(), h.Sessions.New(), f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ResetPassword accepts the recovery token from the reset link, or falls
// back to the caller's own session.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var f forms.ResetPassword
	if !decode(w, r, &f) {
		return
	}
	s := middleware.FromContext(r.Context())
	if s == nil {
		s = h.Sessions.New()
	}
	if f.Token == "" {
		f.Token = s.Token()
	}
	out, err := forms.SubmitResetPassword(r.Context(), s, f)
	if err != nil {
		writeFormError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := middleware.FromContext(r.Context()); s != nil {
		if err := h.Sessions.End(r.Context(), s); err != nil {
			log.Error().Err(err).Msg("sign out failed at the provider")
		}
	}
	middleware.ClearToken(w)
	writeJSON(w, http.StatusOK, forms.Outcome{Redirect: forms.PathLogin})
}

// Confirm handles the link mailed after registration.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h.Confirmer == nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Confirmer.Confirm(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeFormError(w, err)
		return
	}
	http.Redirect(w, r, forms.PathLogin+"?confirmed=1", http.StatusSeeOther)
}
