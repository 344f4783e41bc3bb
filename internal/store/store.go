package store

import (
	"context"
	"errors"

	"github.com/pliu/instamunicipal/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidToken = errors.New("invalid token")
)

// Store is the row storage of the backend. Implementations must be safe for
// concurrent use.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User, verificationToken string) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	VerifyUser(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// Department operations
	ListDepartments(ctx context.Context) ([]models.Department, error)
	SaveDepartment(ctx context.Context, dept models.Department) error

	// Post operations
	SavePost(ctx context.Context, authorID string, post *models.Post) error
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)

	// Message operations
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)

	// AI interaction log
	SaveInteraction(ctx context.Context, in models.AIInteraction) error
	RecentInteractions(ctx context.Context, userID string, limit int) ([]models.AIInteraction, error)

	Close() error
}
