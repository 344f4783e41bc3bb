// Package messaging holds the conversation list, the contact picker and the
// per-conversation transcripts with their simulated responder.
package messaging

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

const newConversationMessage = "Start a new conversation"

// ConversationList is the viewer's list of conversations and the current
// selection.
type ConversationList struct {
	mu       sync.Mutex
	convs    []models.Conversation
	selected string
	now      func() time.Time
}

func NewConversationList(convs []models.Conversation) *ConversationList {
	cp := make([]models.Conversation, len(convs))
	copy(cp, convs)
	return &ConversationList{convs: cp, now: time.Now}
}

func (l *ConversationList) List() []models.Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Conversation, len(l.convs))
	copy(out, l.convs)
	return out
}

// Search matches query against recipient names only.
func (l *ConversationList) Search(query string) []models.Conversation {
	q := strings.ToLower(query)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range l.convs {
		if strings.Contains(strings.ToLower(c.RecipientName), q) {
			out = append(out, c)
		}
	}
	return out
}

func (l *ConversationList) Get(id string) (models.Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.convs {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Conversation{}, ErrConversationNotFound
}

// Select makes id the current conversation. changed is false when id was
// already selected.
func (l *ConversationList) Select(id string) (conv models.Conversation, changed bool, err error) {
	conv, err = l.Get(id)
	if err != nil {
		return conv, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.selected == id {
		return conv, false, nil
	}
	l.selected = id
	return conv, true, nil
}

// Selected returns the current conversation, if any.
func (l *ConversationList) Selected() (models.Conversation, bool) {
	l.mu.Lock()
	id := l.selected
	l.mu.Unlock()
	if id == "" {
		return models.Conversation{}, false
	}
	c, err := l.Get(id)
	return c, err == nil
}

// StartConversation opens a conversation with c, adds it to the top of the
// list and selects it.
func (l *ConversationList) StartConversation(c models.Contact) models.Conversation {
	conv := models.Conversation{
		ID:              "conv-new-" + uuid.NewString(),
		RecipientID:     c.ID,
		RecipientName:   c.Name,
		RecipientAvatar: c.Avatar,
		LastMessage:     newConversationMessage,
		Timestamp:       l.now(),
		IsOnline:        true,
		IsDepartment:    c.IsDepartment,
	}
	if c.IsDepartment {
		conv.DepartmentID = strings.TrimPrefix(c.ID, models.DepartmentChannelPrefix)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.convs = append([]models.Conversation{conv}, l.convs...)
	l.selected = conv.ID
	return conv
}

// Touch records msg as the latest message of its conversation.
func (l *ConversationList) Touch(msg models.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.convs {
		if l.convs[i].ID == msg.ConversationID {
			l.convs[i].LastMessage = msg.Content
			l.convs[i].Timestamp = msg.Timestamp
			return
		}
	}
}

// MarkRead clears the unread counter of id.
func (l *ConversationList) MarkRead(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.convs {
		if l.convs[i].ID == id {
			l.convs[i].UnreadCount = 0
			return
		}
	}
}

// DefaultConversations returns the seeded conversations, dated relative to now.
func DefaultConversations(now time.Time) []models.Conversation {
	return []models.Conversation{
		{
			ID:              "conv-1",
			RecipientID:     "user-2",
			RecipientName:   "Jane Cooper",
			RecipientAvatar: models.AvatarURL("jane"),
			LastMessage:     "I'll check with the team and get back to you",
			Timestamp:       now.Add(-5 * time.Minute),
			UnreadCount:     2,
			IsOnline:        true,
		},
		{
			ID:              "conv-2",
			RecipientID:     "user-3",
			RecipientName:   "Robert Fox",
			RecipientAvatar: models.AvatarURL("robert"),
			LastMessage:     "The meeting is scheduled for tomorrow at 10 AM",
			Timestamp:       now.Add(-30 * time.Minute),
		},
		{
			ID:              "conv-3",
			RecipientID:     "dept-1",
			RecipientName:   "Public Works",
			RecipientAvatar: models.AvatarURL("public-works"),
			LastMessage:     "New road maintenance schedule posted",
			Timestamp:       now.Add(-2 * time.Hour),
			UnreadCount:     1,
			IsOnline:        true,
			IsDepartment:    true,
			DepartmentID:    "public-works",
		},
		{
			ID:              "conv-4",
			RecipientID:     "user-4",
			RecipientName:   "Leslie Knope",
			RecipientAvatar: models.AvatarURL("leslie"),
			LastMessage:     "Can you review the proposal before the meeting?",
			Timestamp:       now.Add(-5 * time.Hour),
			IsOnline:        true,
		},
		{
			ID:              "conv-5",
			RecipientID:     "dept-2",
			RecipientName:   "Parks & Recreation",
			RecipientAvatar: models.AvatarURL("parks-rec"),
			LastMessage:     "Summer program registration is now open",
			Timestamp:       now.Add(-24 * time.Hour),
			IsOnline:        true,
			IsDepartment:    true,
			DepartmentID:    "parks-rec",
		},
	}
}
