package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/pliu/instamunicipal/internal/assistant"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/feed"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/notifications"
	"github.com/pliu/instamunicipal/internal/session"
	"github.com/rs/zerolog/log"
)

// Deps are shared by every workspace.
type Deps struct {
	Posts      feed.PostStore
	Messages   messaging.MessageStore
	Directory  *departments.Directory
	Responder  messaging.Responder
	Completion *assistant.Client
	Events     Events

	// Interactions returns the interaction log of the session holding token.
	// It is resolved per request.
	Interactions func(token string) assistant.InteractionLog
}

// Registry owns the workspaces of signed-in viewers, keyed by identity id.
type Registry struct {
	deps Deps

	mu     sync.Mutex
	byUser map[string]*Workspace
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, byUser: make(map[string]*Workspace)}
}

// For returns the workspace of the viewer signed in to s.
func (r *Registry) For(ctx context.Context, s *session.Store) (*Workspace, error) {
	id := s.Identity()
	if id == nil {
		return nil, session.ErrNotSignedIn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.byUser[id.ID]; ok {
		return w, nil
	}

	var refs []models.DepartmentRef
	if r.deps.Directory != nil {
		var err error
		if refs, err = r.deps.Directory.Refs(ctx); err != nil {
			log.Error().Err(err).Msg("failed to list departments")
		}
	}

	wctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		Identity:      id,
		Feed:          feed.Load(ctx, r.deps.Posts, refs),
		Conversations: messaging.NewConversationList(messaging.DefaultConversations(time.Now())),
		Notifications: notifications.NewPanel(notifications.Defaults()),
		AssistantChat: assistant.NewTranscript(id),
		ctx:           wctx,
		cancel:        cancel,
		responder:     r.deps.Responder,
		messages:      r.deps.Messages,
		events:        r.deps.Events,
		completion:    r.deps.Completion,
		interactions:  r.deps.Interactions,
		transcripts:   make(map[string]*messaging.Transcript),
	}
	r.byUser[id.ID] = w
	log.Debug().Str("user_id", id.ID).Msg("workspace opened")
	return w, nil
}

// Release closes the workspace of id. It is registered as a sign-out hook,
// which the session manager runs once the last session of id has ended.
func (r *Registry) Release(id *models.Identity) {
	if id == nil {
		return
	}
	r.mu.Lock()
	w, ok := r.byUser[id.ID]
	delete(r.byUser, id.ID)
	r.mu.Unlock()
	if ok {
		w.Close()
		log.Debug().Str("user_id", id.ID).Msg("workspace closed")
	}
}

// CloseAll closes every workspace, on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.byUser
	r.byUser = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}
