package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver (pgx)
	_ "github.com/lib/pq"              // Postgres driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"github.com/pliu/instamunicipal/internal/models"
	"github.com/pliu/instamunicipal/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

var _ store.Store = (*SQLStore)(nil)

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if driverName == "sqlite3" {
		// :memory: databases are per connection
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) isPostgres() bool {
	return s.driverName == "postgres" || s.driverName == "pgx"
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, the hosted backend provisions its own schema
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		full_name TEXT,
		department TEXT,
		is_government BOOLEAN DEFAULT FALSE,
		is_verified BOOLEAN DEFAULT FALSE,
		verification_token TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		member_count INTEGER DEFAULT 0,
		activity_time TEXT,
		activity_count INTEGER DEFAULT 0,
		is_active BOOLEAN DEFAULT TRUE,
		unread_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		author_name TEXT,
		author_department TEXT,
		content TEXT NOT NULL,
		department_id TEXT,
		department_name TEXT,
		is_anonymous BOOLEAN DEFAULT FALSE,
		location TEXT,
		visibility TEXT NOT NULL DEFAULT 'public',
		images TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT,
		recipient_id TEXT NOT NULL,
		content TEXT NOT NULL,
		is_read BOOLEAN DEFAULT FALSE,
		attachments TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ai_interactions (
		user_id TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if s.isPostgres() {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.isPostgres() {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User, verificationToken string) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO profiles (id, email, password, full_name, department, is_government, is_verified, verification_token, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.Password, user.FullName, user.Department, user.IsGovernment, user.IsVerified, verificationToken, user.CreatedAt)
	return err
}

const userColumns = "id, email, password, COALESCE(full_name, ''), COALESCE(department, ''), is_government, is_verified, created_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.FullName, &user.Department, &user.IsGovernment, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM profiles WHERE email = ?")
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM profiles WHERE id = ?")
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLStore) VerifyUser(ctx context.Context, token string) error {
	if token == "" {
		return store.ErrInvalidToken
	}
	query := s.rebind("UPDATE profiles SET is_verified = TRUE, verification_token = '' WHERE verification_token = ?")
	result, err := s.db.ExecContext(ctx, query, token)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrInvalidToken
	}
	return nil
}

func (s *SQLStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := s.rebind("UPDATE profiles SET password = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) SearchUsers(ctx context.Context, queryStr string) ([]models.User, error) {
	query := s.rebind("SELECT id, email, COALESCE(full_name, ''), COALESCE(department, ''), is_government FROM profiles WHERE LOWER(full_name) LIKE ? LIMIT 10")
	rows, err := s.db.QueryContext(ctx, query, "%"+strings.ToLower(queryStr)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.Department, &user.IsGovernment); err != nil {
			return nil, err
		}
		user.Email = maskEmail(user.Email)
		users = append(users, user)
	}
	return users, rows.Err()
}

func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]
	length := len(local)
	visible := 1
	if length > 2 {
		visible = min(length/2, 3)
	}

	maskedLocal := local[:visible] + strings.Repeat("*", length-visible)
	return maskedLocal + "@" + domain
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), member_count, COALESCE(activity_time, ''),
			activity_count, is_active, unread_count
		FROM departments
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depts []models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.MemberCount, &d.RecentActivity.Time,
			&d.RecentActivity.Count, &d.IsActive, &d.UnreadCount); err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (s *SQLStore) SaveDepartment(ctx context.Context, d models.Department) error {
	query := s.rebind(`
		INSERT INTO departments (id, name, description, member_count, activity_time, activity_count, is_active, unread_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			member_count = excluded.member_count,
			activity_time = excluded.activity_time,
			activity_count = excluded.activity_count,
			is_active = excluded.is_active,
			unread_count = excluded.unread_count
	`)
	_, err := s.db.ExecContext(ctx, query, d.ID, d.Name, d.Description, d.MemberCount, d.RecentActivity.Time,
		d.RecentActivity.Count, d.IsActive, d.UnreadCount, time.Now().UTC())
	return err
}

func (s *SQLStore) SavePost(ctx context.Context, authorID string, p *models.Post) error {
	var deptID, deptName sql.NullString
	if p.Department != nil {
		deptID = sql.NullString{String: p.Department.ID, Valid: true}
		deptName = sql.NullString{String: p.Department.Name, Valid: true}
	}
	anonymous := p.Visibility == models.VisibilityAnonymous
	query := s.rebind(`
		INSERT INTO posts (id, author_id, author_name, author_department, content, department_id, department_name,
			is_anonymous, location, visibility, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query, p.ID, authorID, p.Author.Name, p.Author.Department, p.Content, deptID, deptName,
		anonymous, p.Location, string(p.Visibility), strings.Join(p.Images, "\n"), p.CreatedAt.UTC())
	return err
}

func (s *SQLStore) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	query := s.rebind(`
		SELECT id, author_id, COALESCE(author_name, ''), COALESCE(author_department, ''), content,
			department_id, department_name, is_anonymous, COALESCE(location, ''), visibility,
			COALESCE(images, ''), created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var (
			p                  models.Post
			deptID, deptName   sql.NullString
			anonymous          bool
			visibility, images string
		)
		if err := rows.Scan(&p.ID, &p.Author.ID, &p.Author.Name, &p.Author.Department, &p.Content,
			&deptID, &deptName, &anonymous, &p.Location, &visibility, &images, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Visibility = models.Visibility(visibility)
		if anonymous {
			// the author column keeps the real id; readers only see the sentinel
			p.Author = models.AnonymousAuthor()
		} else {
			p.Author.Avatar = models.AvatarURL(p.Author.ID)
		}
		if deptID.Valid {
			p.Department = &models.DepartmentRef{ID: deptID.String, Name: deptName.String}
		}
		if images != "" {
			p.Images = strings.Split(images, "\n")
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *SQLStore) SaveMessage(ctx context.Context, m *models.ChatMessage) error {
	var attachments sql.NullString
	if len(m.Attachments) > 0 {
		b, err := json.Marshal(m.Attachments)
		if err != nil {
			return err
		}
		attachments = sql.NullString{String: string(b), Valid: true}
	}
	query := s.rebind("INSERT INTO messages (id, conversation_id, sender_id, sender_name, recipient_id, content, is_read, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.SenderName, m.RecipientID, m.Content, m.IsRead, attachments, m.Timestamp.UTC())
	return err
}

func (s *SQLStore) GetConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	query := s.rebind(`
		SELECT id, conversation_id, sender_id, COALESCE(sender_name, ''), recipient_id, content, is_read,
			COALESCE(attachments, ''), created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC
	`)
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var (
			m           models.ChatMessage
			attachments string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Content,
			&m.IsRead, &attachments, &m.Timestamp); err != nil {
			return nil, err
		}
		if attachments != "" {
			if err := json.Unmarshal([]byte(attachments), &m.Attachments); err != nil {
				return nil, fmt.Errorf("decode attachments of %s: %w", m.ID, err)
			}
		}
		m.SenderAvatar = models.AvatarURL(m.SenderID)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLStore) SaveInteraction(ctx context.Context, in models.AIInteraction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	query := s.rebind("INSERT INTO ai_interactions (user_id, prompt, response, created_at) VALUES (?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, in.UserID, in.Prompt, in.Response, in.CreatedAt.UTC())
	return err
}

func (s *SQLStore) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.AIInteraction, error) {
	query := s.rebind(`
		SELECT user_id, prompt, response, created_at
		FROM ai_interactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AIInteraction
	for rows.Next() {
		var in models.AIInteraction
		if err := rows.Scan(&in.UserID, &in.Prompt, &in.Response, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
