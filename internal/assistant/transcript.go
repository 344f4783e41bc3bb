package assistant

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pliu/instamunicipal/internal/models"
)

// ErrorBubbleMessage is shown when no reply text came back at all.
const ErrorBubbleMessage = "I'm sorry, I encountered an error. Please try again later."

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type Bubble struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Asker is implemented by *Assistant.
type Asker interface {
	Ask(ctx context.Context, who *models.Identity, prompt, departmentContext string) (string, error)
}

// Transcript is the visible conversation of the assistant widget. One
// question is in flight at a time.
type Transcript struct {
	mu      sync.Mutex
	bubbles []Bubble
	loading bool
	seq     int
	now     func() time.Time
}

// Welcome is the first assistant bubble for who.
func Welcome(who *models.Identity) string {
	name := ""
	if n := who.DisplayName(""); n != "" {
		name = " " + n
	}
	return "Hello" + name + "! I'm your InstaMunicipal AI assistant. How can I help you today?"
}

func NewTranscript(who *models.Identity) *Transcript {
	t := &Transcript{now: time.Now}
	t.bubbles = []Bubble{{ID: "welcome", Content: Welcome(who), Sender: SenderAI, Timestamp: t.now()}}
	return t
}

func (t *Transcript) Bubbles() []Bubble {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Bubble, len(t.bubbles))
	copy(out, t.bubbles)
	return out
}

func (t *Transcript) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

func (t *Transcript) add(prefix, content string, s Sender) Bubble {
	t.seq++
	b := Bubble{ID: prefix + "-" + strconv.Itoa(t.seq), Content: content, Sender: s, Timestamp: t.now()}
	t.bubbles = append(t.bubbles, b)
	return b
}

// Submit appends input and the reply of a. It returns false, and does
// nothing, for blank input or while a reply is pending.
func (t *Transcript) Submit(ctx context.Context, a Asker, who *models.Identity, input, departmentContext string) (Bubble, bool) {
	if strings.TrimSpace(input) == "" {
		return Bubble{}, false
	}
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return Bubble{}, false
	}
	t.add("user", input, SenderUser)
	t.loading = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.loading = false
		t.mu.Unlock()
	}()

	reply, err := a.Ask(ctx, who, input, departmentContext)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil && reply == "" {
		return t.add("error", ErrorBubbleMessage, SenderAI), true
	}
	return t.add("ai", reply, SenderAI), true
}
