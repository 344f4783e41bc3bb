// Package notifications is the viewer's notification panel.
package notifications

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
)

var ErrNotFound = errors.New("notification not found")

// Panel is safe for concurrent use.
type Panel struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewPanel(items []models.Notification) *Panel {
	cp := make([]models.Notification, len(items))
	copy(cp, items)
	return &Panel{items: cp}
}

func (p *Panel) List() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Notification, len(p.items))
	copy(out, p.items)
	return out
}

// UnreadCount is computed from the list on every call.
func (p *Panel) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, item := range p.items {
		if !item.Read {
			n++
		}
	}
	return n
}

func (p *Panel) MarkAllRead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		p.items[i].Read = true
	}
}

func (p *Panel) Dismiss(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (p *Panel) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}

// Push adds n at the top of the panel. An empty id is filled in.
func (p *Panel) Push(n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]models.Notification{n}, p.items...)
	return n
}

// MessageReceived builds the notification pushed for an incoming chat message.
func MessageReceived(msg models.ChatMessage) models.Notification {
	return models.Notification{
		Type:    models.NotificationMessage,
		Content: "sent you a direct message",
		Time:    "Just now",
		Sender: &models.NotificationSender{
			Name:   msg.SenderName,
			Avatar: msg.SenderAvatar,
		},
	}
}

// Defaults returns the seeded notifications.
func Defaults() []models.Notification {
	return []models.Notification{
		{
			ID:      "1",
			Type:    models.NotificationLike,
			Content: "liked your post about road maintenance",
			Time:    "2 minutes ago",
			Sender:  &models.NotificationSender{Name: "Jane Cooper", Avatar: models.AvatarURL("jane"), Department: "Public Works"},
		},
		{
			ID:      "2",
			Type:    models.NotificationComment,
			Content: "commented on your post about the new park development",
			Time:    "1 hour ago",
			Sender:  &models.NotificationSender{Name: "Robert Fox", Avatar: models.AvatarURL("robert"), Department: "Parks & Rec"},
		},
		{
			ID:      "3",
			Type:    models.NotificationMessage,
			Content: "sent you a direct message",
			Time:    "3 hours ago",
			Read:    true,
			Sender:  &models.NotificationSender{Name: "Leslie Knope", Avatar: models.AvatarURL("leslie"), Department: "City Council"},
		},
		{
			ID:      "4",
			Type:    models.NotificationSystem,
			Content: "Your post has been approved by the moderator",
			Time:    "Yesterday",
			Read:    true,
		},
		{
			ID:      "5",
			Type:    models.NotificationMention,
			Content: "mentioned you in a comment on the budget proposal",
			Time:    "2 days ago",
			Read:    true,
			Sender:  &models.NotificationSender{Name: "Ben Wyatt", Avatar: models.AvatarURL("ben"), Department: "Finance"},
		},
	}
}
