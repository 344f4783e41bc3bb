package models

import (
	"strings"
	"time"
)

const (
	// GovernmentDomainSuffix marks an email address as belonging to an official account.
	GovernmentDomainSuffix = ".gov"

	AnonymousAuthorID       = "anonymous"
	AnonymousAuthorName     = "Anonymous"
	DepartmentChannelPrefix = "dept-"
)

// AvatarURL returns the generated avatar used for a seed (user id, department id, ...).
func AvatarURL(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}

// IsGovernmentEmail reports whether email ends in the government domain suffix.
func IsGovernmentEmail(email string) bool {
	return strings.HasSuffix(email, GovernmentDomainSuffix)
}

type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Department   string `json:"department,omitempty"`
	IsGovernment bool   `json:"is_government"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// DisplayName falls back to fallback when the profile has no full name.
func (i *Identity) DisplayName(fallback string) string {
	if i == nil || i.FullName == "" {
		return fallback
	}
	return i.FullName
}

// Profile holds the fields collected at registration.
type Profile struct {
	FullName     string `json:"full_name"`
	Department   string `json:"department"`
	IsGovernment bool   `json:"is_government"`
}

// User is an account row of the local backend.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	FullName     string    `json:"full_name"`
	Department   string    `json:"department"`
	IsGovernment bool      `json:"is_government"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Identity() *Identity {
	return &Identity{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Department:   u.Department,
		IsGovernment: u.IsGovernment,
		AvatarURL:    AvatarURL(u.ID),
	}
}

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityDepartment Visibility = "department"
	VisibilityAnonymous  Visibility = "anonymous"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityDepartment, VisibilityAnonymous:
		return true
	}
	return false
}

type Author struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Department string `json:"department,omitempty"`
}

// AnonymousAuthor is the sentinel author attached to anonymous posts.
func AnonymousAuthor() Author {
	return Author{
		ID:     AnonymousAuthorID,
		Name:   AnonymousAuthorName,
		Avatar: AvatarURL(AnonymousAuthorID),
	}
}

// IsDepartmentChannel reports whether id addresses a department rather than a person.
func IsDepartmentChannel(id string) bool {
	return strings.HasPrefix(id, DepartmentChannelPrefix)
}

type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	CreatedAt    time.Time      `json:"created_at"`
	Author       Author         `json:"author"`
	Department   *DepartmentRef `json:"department"`
	Visibility   Visibility     `json:"visibility"`
	Images       []string       `json:"images,omitempty"`
	Location     string         `json:"location,omitempty"`
	Likes        int            `json:"likes"`
	Comments     int            `json:"comments"`
	IsLiked      bool           `json:"is_liked"`
	IsBookmarked bool           `json:"is_bookmarked"`
}

type Conversation struct {
	ID              string    `json:"id"`
	RecipientID     string    `json:"recipient_id"`
	RecipientName   string    `json:"recipient_name"`
	RecipientAvatar string    `json:"recipient_avatar"`
	LastMessage     string    `json:"last_message"`
	Timestamp       time.Time `json:"timestamp"`
	UnreadCount     int       `json:"unread_count"`
	IsOnline        bool      `json:"is_online"`
	IsDepartment    bool      `json:"is_department,omitempty"`
	DepartmentID    string    `json:"department_id,omitempty"`
}

// Contact is an entry of the new-message picker.
type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Department   string `json:"department,omitempty"`
	IsDepartment bool   `json:"is_department,omitempty"`
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentAudio AttachmentType = "audio"
)

type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
	Name string         `json:"name,omitempty"`
}

type ChatMessage struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	SenderName     string       `json:"sender_name"`
	SenderAvatar   string       `json:"sender_avatar"`
	RecipientID    string       `json:"recipient_id"`
	Content        string       `json:"content"`
	Timestamp      time.Time    `json:"timestamp"`
	IsRead         bool         `json:"is_read"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type Activity struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

type Department struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	MemberCount    int      `json:"member_count"`
	RecentActivity Activity `json:"recent_activity"`
	IsActive       bool     `json:"is_active"`
	UnreadCount    int      `json:"unread_count"`
}

func (d Department) Ref() *DepartmentRef {
	return &DepartmentRef{ID: d.ID, Name: d.Name}
}

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMention NotificationType = "mention"
	NotificationSystem  NotificationType = "system"
	NotificationMessage NotificationType = "message"
)

type NotificationSender struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Department string `json:"department,omitempty"`
}

type Notification struct {
	ID      string              `json:"id"`
	Type    NotificationType    `json:"type"`
	Content string              `json:"content"`
	Time    string              `json:"time"`
	Read    bool                `json:"read"`
	Sender  *NotificationSender `json:"sender,omitempty"`
}

// AIInteraction is a persisted prompt/response pair.
type AIInteraction struct {
	UserID    string    `json:"user_id,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Story is an entry of the department stories bar.
type Story struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url"`
	IsActive     bool   `json:"is_active,omitempty"`
}
