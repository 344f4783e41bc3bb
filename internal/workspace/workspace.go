// Package workspace keeps the interactive state of each signed-in viewer:
// feed, conversations, notifications and the assistant widget.
package workspace

import (
	"context"
	"sync"

	"github.com/pliu/instamunicipal/internal/assistant"
	"github.com/pliu/instamunicipal/internal/feed"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/notifications"
	"github.com/pliu/instamunicipal/internal/ws"
	"github.com/rs/zerolog/log"
)

// Events receives the live events of a viewer. *ws.Hub implements it.
type Events interface {
	Send(userID string, ev ws.Event)
}

type Workspace struct {
	Identity      *models.Identity
	Feed          *feed.Feed
	Conversations *messaging.ConversationList
	Notifications *notifications.Panel
	AssistantChat *assistant.Transcript

	ctx          context.Context
	cancel       context.CancelFunc
	responder    messaging.Responder
	messages     messaging.MessageStore
	events       Events
	completion   *assistant.Client
	interactions func(token string) assistant.InteractionLog

	mu          sync.Mutex
	transcripts map[string]*messaging.Transcript
}

// Assistant returns the assistant acting for the session holding token. The
// interaction log is bound to that token, so every device of the viewer
// records and reads with its own credentials.
func (w *Workspace) Assistant(token string) *assistant.Assistant {
	var history assistant.InteractionLog
	if w.interactions != nil {
		history = w.interactions(token)
	}
	return assistant.New(w.completion, history)
}

// Transcript returns the open thread of conversation id, loading it on
// first use.
func (w *Workspace) Transcript(ctx context.Context, id string) (*messaging.Transcript, error) {
	conv, err := w.Conversations.Get(id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.transcripts[id]; ok {
		return t, nil
	}

	t := messaging.NewTranscript(w.ctx, conv, w.responder, w.messages)
	if err := t.Load(ctx, w.Identity.ID); err != nil {
		log.Error().Err(err).Str("conversation_id", id).Msg("failed to load conversation history")
	}
	t.OnMessage(w.onMessage)
	w.transcripts[id] = t
	return t, nil
}

func (w *Workspace) onMessage(msg models.ChatMessage) {
	w.Conversations.Touch(msg)
	if w.events != nil {
		w.events.Send(w.Identity.ID, ws.Event{Type: ws.EventMessage, Payload: msg})
	}
	if msg.SenderID == w.Identity.ID {
		return
	}
	n := w.Notifications.Push(notifications.MessageReceived(msg))
	if w.events != nil {
		w.events.Send(w.Identity.ID, ws.Event{Type: ws.EventNotification, Payload: n})
	}
}

// Close cancels every pending reply of the workspace.
func (w *Workspace) Close() {
	w.cancel()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.transcripts {
		t.Close()
	}
}
