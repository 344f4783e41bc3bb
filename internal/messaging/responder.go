package messaging

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
)

// DefaultReplyDelay is how long the simulated recipient takes to answer.
const DefaultReplyDelay = 2 * time.Second

// Replies is the fixed set the simulated recipient picks from.
var Replies = []string{
	"Thanks for the update!",
	"I'll look into this right away.",
	"Could you provide more details?",
	"Let me check with the team and get back to you.",
	"This is great news!",
	"We should discuss this in the next meeting.",
	"I appreciate your quick response.",
	"Have you filed the official report yet?",
}

// Responder produces the other side of a conversation. Respond must not
// block; deliver may be called later from another goroutine and must not be
// called once ctx is done.
type Responder interface {
	Respond(ctx context.Context, conv models.Conversation, sent models.ChatMessage, deliver func(models.ChatMessage))
}

// ScriptedResponder answers every message with a random canned reply after
// Delay. It stands in for a real recipient.
type ScriptedResponder struct {
	Delay   time.Duration
	Replies []string

	// After and Pick are replaced in tests.
	After func(time.Duration) <-chan time.Time
	Pick  func(n int) int

	mu sync.Mutex
}

func NewScriptedResponder(delay time.Duration) *ScriptedResponder {
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	return &ScriptedResponder{
		Delay:   delay,
		Replies: Replies,
		After:   time.After,
		Pick:    rand.IntN,
	}
}

func (r *ScriptedResponder) pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Replies[r.Pick(len(r.Replies))]
}

func (r *ScriptedResponder) Respond(ctx context.Context, conv models.Conversation, sent models.ChatMessage, deliver func(models.ChatMessage)) {
	timer := r.After(r.Delay)
	go func() {
		select {
		case <-ctx.Done():
			return
		case at := <-timer:
			deliver(models.ChatMessage{
				ID:             "msg-" + uuid.NewString(),
				ConversationID: conv.ID,
				SenderID:       conv.RecipientID,
				SenderName:     conv.RecipientName,
				SenderAvatar:   conv.RecipientAvatar,
				RecipientID:    sent.SenderID,
				Content:        r.pick(),
				Timestamp:      at,
				IsRead:         true,
			})
		}
	}()
}
