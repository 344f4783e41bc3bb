// Package feed holds a viewer's post list and the composer that adds to it.
package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/rs/zerolog/log"
)

var ErrPostNotFound = errors.New("post not found")

// PersistedLimit caps how many stored posts are merged into a new feed.
const PersistedLimit = 50

type Mode string

const (
	ModeAll         Mode = "all"
	ModeDepartments Mode = "departments"
	ModePeople      Mode = "people"
)

// PostStore is the subset of the backend the feed writes to.
type PostStore interface {
	SavePost(ctx context.Context, authorID string, post *models.Post) error
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)
}

// Draft is the composer's input.
type Draft struct {
	Content      string            `json:"content"`
	Visibility   models.Visibility `json:"visibility"`
	DepartmentID string            `json:"department_id"`
	Images       []string          `json:"images"`
	Location     string            `json:"location"`
}

type Feed struct {
	mu          sync.Mutex
	posts       []models.Post
	departments []models.DepartmentRef
	store       PostStore
	now         func() time.Time
}

// New builds a feed over posts, newest first. departments is the list the
// composer resolves department ids against. s may be nil.
func New(posts []models.Post, departments []models.DepartmentRef, s PostStore) *Feed {
	cp := make([]models.Post, len(posts))
	copy(cp, posts)
	return &Feed{
		posts:       cp,
		departments: departments,
		store:       s,
		now:         time.Now,
	}
}

// Load builds a feed from the persisted posts followed by the sample posts.
func Load(ctx context.Context, s PostStore, departments []models.DepartmentRef) *Feed {
	now := time.Now()
	posts := []models.Post{}
	if s != nil {
		stored, err := s.ListPosts(ctx, PersistedLimit)
		if err != nil {
			log.Error().Err(err).Msg("failed to load persisted posts")
		}
		posts = append(posts, stored...)
	}
	posts = append(posts, SamplePosts(now)...)
	return New(posts, departments, s)
}

// Posts returns a snapshot of the feed.
func (f *Feed) Posts() []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

func (f *Feed) find(id string) (*models.Post, error) {
	for i := range f.posts {
		if f.posts[i].ID == id {
			return &f.posts[i], nil
		}
	}
	return nil, ErrPostNotFound
}

// ToggleLike flips the viewer's like and moves the count by one.
func (f *Feed) ToggleLike(postID string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.find(postID)
	if err != nil {
		return models.Post{}, err
	}
	if p.IsLiked {
		p.Likes--
	} else {
		p.Likes++
	}
	p.IsLiked = !p.IsLiked
	return *p, nil
}

func (f *Feed) ToggleBookmark(postID string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.find(postID)
	if err != nil {
		return models.Post{}, err
	}
	p.IsBookmarked = !p.IsBookmarked
	return *p, nil
}

// CreatePost prepends a post built from d. It returns false, and changes
// nothing, when the content is blank.
func (f *Feed) CreatePost(ctx context.Context, author *models.Identity, d Draft) (*models.Post, bool) {
	if strings.TrimSpace(d.Content) == "" {
		return nil, false
	}
	if !d.Visibility.Valid() {
		d.Visibility = models.VisibilityPublic
	}

	post := models.Post{
		ID:         "post-" + uuid.NewString(),
		Content:    d.Content,
		CreatedAt:  f.now(),
		Visibility: d.Visibility,
		Images:     d.Images,
		Location:   d.Location,
	}
	if d.Visibility == models.VisibilityAnonymous {
		post.Author = models.AnonymousAuthor()
	} else {
		post.Author = authorFor(author)
	}

	f.mu.Lock()
	if d.DepartmentID != "" {
		for _, ref := range f.departments {
			if ref.ID == d.DepartmentID {
				post.Department = &models.DepartmentRef{ID: ref.ID, Name: ref.Name}
				break
			}
		}
	}
	f.posts = append([]models.Post{post}, f.posts...)
	f.mu.Unlock()

	if f.store != nil {
		authorID := post.Author.ID
		if author != nil {
			authorID = author.ID
		}
		if err := f.store.SavePost(ctx, authorID, &post); err != nil {
			log.Error().Err(err).Str("post_id", post.ID).Msg("failed to persist post")
		}
	}
	return &post, true
}

func authorFor(id *models.Identity) models.Author {
	if id == nil {
		return models.Author{ID: "user", Name: "User", Avatar: models.AvatarURL("user")}
	}
	return models.Author{
		ID:         id.ID,
		Name:       id.DisplayName("User"),
		Avatar:     models.AvatarURL(id.ID),
		Department: id.Department,
	}
}

// Filter returns the posts visible under mode.
func Filter(posts []models.Post, mode Mode) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		switch mode {
		case ModeDepartments:
			if p.Department == nil {
				continue
			}
		case ModePeople:
			if p.Author.ID == models.AnonymousAuthorID || models.IsDepartmentChannel(p.Author.ID) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
