package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/forms"
	"github.com/pliu/instamunicipal/internal/middleware"
	"github.com/pliu/instamunicipal/internal/session"
	"github.com/pliu/instamunicipal/internal/workspace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFormError renders a failed form submission as {"error": message}.
func writeFormError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var verr *forms.ValidationError
	var perr *auth.ProviderError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &perr):
		status = perr.Status
		if status < 400 {
			status = http.StatusBadRequest
		}
	case errors.Is(err, session.ErrNotSignedIn):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": forms.Message(err)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionToken is the access token of the request's session, or "".
func sessionToken(r *http.Request) string {
	if s := middleware.FromContext(r.Context()); s != nil {
		return s.Token()
	}
	return ""
}

// viewer resolves the workspace of the signed-in request. It writes the
// error response itself and returns nil when there is none.
func viewer(reg *workspace.Registry, w http.ResponseWriter, r *http.Request) *workspace.Workspace {
	s := middleware.FromContext(r.Context())
	if s == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	ws, err := reg.For(r.Context(), s)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	return ws
}
