// Package articles stores published articles. Content is always sanitized
// by the store before it is written.
package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thejerf/abtime"

	"pressroom/internal/dbx"
)

var (
	// ErrInvalidArticle is returned when the title is blank or the content
	// is empty once sanitized. Nothing is written.
	ErrInvalidArticle = errors.New("title and content are required")
	ErrNotFound       = errors.New("article not found")
)

type Article struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sanitizer reduces untrusted HTML to the stored subset.
type Sanitizer interface {
	Sanitize(raw string) string
}

type Store struct {
	db        dbx.DBTX
	sanitizer Sanitizer
	clock     abtime.AbstractTime
}

func NewStore(db dbx.DBTX, sanitizer Sanitizer, clock abtime.AbstractTime) *Store {
	return &Store{db: db, sanitizer: sanitizer, clock: clock}
}

func (s *Store) prepare(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = s.sanitizer.Sanitize(content)
	if title == "" || content == "" {
		return "", "", ErrInvalidArticle
	}
	return title, content, nil
}

func (s *Store) Create(ctx context.Context, title, content string) (*Article, error) {
	title, content, err := s.prepare(title, content)
	if err != nil {
		return nil, err
	}

	now := time.Unix(s.clock.Now().Unix(), 0)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)`, title, content, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("inserting article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading article id: %w", err)
	}

	return &Article{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update replaces title and content. It returns ErrNotFound when no article
// has the given id.
func (s *Store) Update(ctx context.Context, id int64, title, content string) error {
	title, content, err := s.prepare(title, content)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET title = ?, content = ?, updated_at = ?
		WHERE id = ?`, title, content, s.clock.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM articles
		WHERE id = ?`, id)
	return scanArticle(row)
}

// GetByTitle returns the newest article with exactly this title.
func (s *Store) GetByTitle(ctx context.Context, title string) (*Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM articles
		WHERE title = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, strings.TrimSpace(title))
	return scanArticle(row)
}

// List returns all articles, newest first.
func (s *Store) List(ctx context.Context) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM articles
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var list []Article
	for rows.Next() {
		var a Article
		var created, updated int64
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0)
		a.UpdatedAt = time.Unix(updated, 0)
		list = append(list, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return list, nil
}

// Delete removes the article. Deleting a missing article is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	return nil
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var created, updated int64
	err := row.Scan(&a.ID, &a.Title, &a.Content, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return &a, nil
}
