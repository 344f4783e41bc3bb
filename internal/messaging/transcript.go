package messaging

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/rs/zerolog/log"
)

// MessageStore persists transcript messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
}

// Transcript is the message thread of one conversation. Messages are kept in
// the order they were appended.
type Transcript struct {
	conv      models.Conversation
	responder Responder
	store     MessageStore

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	mu        sync.Mutex
	messages  []models.ChatMessage
	listeners []func(models.ChatMessage)
	pending   int
}

// NewTranscript opens the thread of conv. Pending replies are cancelled when
// parent is done or Close is called. responder and s may be nil.
func NewTranscript(parent context.Context, conv models.Conversation, responder Responder, s MessageStore) *Transcript {
	ctx, cancel := context.WithCancel(parent)
	return &Transcript{
		conv:      conv,
		responder: responder,
		store:     s,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Load appends the persisted messages of the conversation exchanged with
// viewerID.
func (t *Transcript) Load(ctx context.Context, viewerID string) error {
	if t.store == nil {
		return nil
	}
	msgs, err := t.store.GetConversationMessages(ctx, t.conv.ID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range msgs {
		if m.SenderID == viewerID || m.RecipientID == viewerID {
			t.messages = append(t.messages, m)
		}
	}
	return nil
}

func (t *Transcript) Conversation() models.Conversation { return t.conv }

func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Typing reports whether a reply is still pending. Replies of a closed or
// cancelled transcript never arrive.
func (t *Transcript) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending > 0 && t.ctx.Err() == nil
}

// OnMessage registers fn to be called after every appended message.
func (t *Transcript) OnMessage(fn func(models.ChatMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Send appends an outgoing message and, outside department channels, asks
// the responder for a reply. It returns false for blank text.
func (t *Transcript) Send(ctx context.Context, sender *models.Identity, text string, attachments []models.Attachment) (*models.ChatMessage, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	senderID := "current-user"
	if sender != nil {
		senderID = sender.ID
	}
	msg := models.ChatMessage{
		ID:             "msg-" + uuid.NewString(),
		ConversationID: t.conv.ID,
		SenderID:       senderID,
		SenderName:     sender.DisplayName("You"),
		SenderAvatar:   models.AvatarURL(senderID),
		RecipientID:    t.conv.RecipientID,
		Content:        text,
		Timestamp:      t.now(),
		Attachments:    attachments,
	}
	if !t.append(ctx, msg) {
		return nil, false
	}

	if t.responder != nil && !t.conv.IsDepartment {
		t.mu.Lock()
		t.pending++
		t.mu.Unlock()
		t.responder.Respond(t.ctx, t.conv, msg, t.deliver)
	}
	return &msg, true
}

func (t *Transcript) deliver(reply models.ChatMessage) {
	t.mu.Lock()
	if t.pending > 0 {
		t.pending--
	}
	t.mu.Unlock()
	t.append(t.ctx, reply)
}

func (t *Transcript) append(ctx context.Context, msg models.ChatMessage) bool {
	t.mu.Lock()
	if t.ctx.Err() != nil {
		t.mu.Unlock()
		return false
	}
	t.messages = append(t.messages, msg)
	listeners := make([]func(models.ChatMessage), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveMessage(ctx, &msg); err != nil {
			log.Error().Err(err).Str("conversation_id", msg.ConversationID).Msg("failed to persist message")
		}
	}
	for _, fn := range listeners {
		fn(msg)
	}
	return true
}

// Close cancels pending replies. The transcript accepts no messages afterwards.
func (t *Transcript) Close() {
	t.cancel()
	t.mu.Lock()
	t.pending = 0
	t.mu.Unlock()
}
