package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/middleware"
	"github.com/pliu/instamunicipal/internal/session"
	"github.com/pliu/instamunicipal/internal/workspace"
	"github.com/pliu/instamunicipal/internal/ws"
)

// Options are the collaborators of the HTTP surface.
type Options struct {
	Sessions  *session.Manager
	Confirmer Confirmer
	Registry  *workspace.Registry
	Directory *departments.Directory
	Users     messaging.UserDirectory
	Hub       *ws.Hub

	// AssistantLimit throttles POST /assistant/ask per viewer. Nil disables it.
	AssistantLimit *middleware.RateLimiter
	Storyboards    bool
	StaticDir      string
}

func NewRouter(o Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Session(o.Sessions))

	authHandler := &AuthHandler{Sessions: o.Sessions, Confirmer: o.Confirmer}
	r.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/government/login", authHandler.GovernmentLogin).Methods(http.MethodPost)
	r.HandleFunc("/government/register", authHandler.GovernmentRegister).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", authHandler.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", authHandler.ResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/confirm", authHandler.Confirm).Methods(http.MethodGet)

	if o.Storyboards {
		r.HandleFunc("/tempobook", StoryboardIndex).Methods(http.MethodGet)
		r.HandleFunc("/tempobook/{name}", Storyboard).Methods(http.MethodGet)
	}

	dir := &DirectoryHandler{Directory: o.Directory, Registry: o.Registry}
	feedHandler := &FeedHandler{Registry: o.Registry}
	msgs := &MessagesHandler{Registry: o.Registry, Users: o.Users}
	notes := &NotificationsHandler{Registry: o.Registry}
	ai := &AssistantHandler{Registry: o.Registry}

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.RequireSession)

	protected.HandleFunc("/", dir.Home).Methods(http.MethodGet)
	protected.HandleFunc("/departments", dir.Departments).Methods(http.MethodGet)

	protected.HandleFunc("/feed", feedHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/feed/posts", feedHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/feed/posts/{id}/like", feedHandler.Like).Methods(http.MethodPost)
	protected.HandleFunc("/feed/posts/{id}/bookmark", feedHandler.Bookmark).Methods(http.MethodPost)

	protected.HandleFunc("/messages", msgs.Conversations).Methods(http.MethodGet)
	protected.HandleFunc("/messages/conversations", msgs.Start).Methods(http.MethodPost)
	protected.HandleFunc("/messages/conversations/{id}/select", msgs.Select).Methods(http.MethodPost)
	protected.HandleFunc("/messages/conversations/{id}/messages", msgs.Thread).Methods(http.MethodGet)
	protected.HandleFunc("/messages/conversations/{id}/messages", msgs.Send).Methods(http.MethodPost)
	protected.HandleFunc("/contacts", msgs.Contacts).Methods(http.MethodGet)

	protected.HandleFunc("/notifications", notes.List).Methods(http.MethodGet)
	protected.HandleFunc("/notifications", notes.ClearAll).Methods(http.MethodDelete)
	protected.HandleFunc("/notifications/read", notes.MarkAllRead).Methods(http.MethodPost)
	protected.HandleFunc("/notifications/{id}", notes.Dismiss).Methods(http.MethodDelete)

	var ask http.Handler = http.HandlerFunc(ai.Ask)
	if o.AssistantLimit != nil {
		ask = o.AssistantLimit.Limit(ask)
	}
	protected.Handle("/assistant/ask", ask).Methods(http.MethodPost)
	protected.HandleFunc("/assistant/history", ai.History).Methods(http.MethodGet)

	if o.Hub != nil {
		protected.HandleFunc("/ws", Events(o.Hub)).Methods(http.MethodGet)
	}

	if o.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(o.StaticDir)))
	}
	return r
}

// Events upgrades the request to the viewer's live event stream.
func Events(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.FromContext(r.Context())
		if s == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		// the session may have ended since the guard ran
		id := s.Identity()
		if id == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ws.ServeWs(hub, w, r, id.ID)
	}
}
