// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/papyrus/internal/model"
)

// Queries wraps a database handle and exposes the post query methods.
type Queries struct {
	db DBTX
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const postColumns = `id, title, slug, locale, group_id, content, excerpt, status, tags, author_id, created_at, updated_at, published_at`

func scanPost(row interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Locale, &p.GroupID,
		&p.Content, &p.Excerpt, &p.Status, &p.Tags, &p.AuthorID,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	)
	return p, err
}

// GetPostByID fetches a single post by its ID.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostByLocaleAndSlug fetches the post with the given (locale, slug) key.
// Returns sql.ErrNoRows when no such post exists.
func (q *Queries) GetPostByLocaleAndSlug(ctx context.Context, locale, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE locale = ? AND slug = ?`, locale, slug)
	return scanPost(row)
}

// GetPostByGroupAndLocale fetches the post with the given (group_id, locale) key.
// Returns sql.ErrNoRows when no such post exists.
func (q *Queries) GetPostByGroupAndLocale(ctx context.Context, groupID, locale string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE group_id = ? AND locale = ?`, groupID, locale)
	return scanPost(row)
}

// CreatePostParams holds the fields for creating a post.
type CreatePostParams struct {
	Title       string
	Slug        string
	Locale      string
	GroupID     sql.NullString
	Content     string
	Excerpt     string
	Status      string
	Tags        string
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

// CreatePost inserts a new post and returns it. Uniqueness of (locale, slug)
// and (group_id, locale) is enforced by the schema; violations surface as errors.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO posts (title, slug, locale, group_id, content, excerpt, status, tags, author_id, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Locale, arg.GroupID, arg.Content, arg.Excerpt,
		arg.Status, arg.Tags, arg.AuthorID, arg.CreatedAt, arg.UpdatedAt, arg.PublishedAt,
	)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, fmt.Errorf("fetching insert id: %w", err)
	}
	return q.GetPostByID(ctx, id)
}

// UpdatePostParams holds the fields for updating a post.
// GroupID and Locale are deliberately absent: they identify the post and
// are never changed by an update.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Status      string
	Tags        string
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

// UpdatePost overwrites the mutable fields of an existing post and returns it.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, slug = ?, content = ?, excerpt = ?, status = ?, tags = ?, updated_at = ?, published_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Status, arg.Tags,
		arg.UpdatedAt, arg.PublishedAt, arg.ID,
	)
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, arg.ID)
}

// PostFilter selects posts for export. All provided predicates are combined
// with AND semantics; zero-value fields mean "no restriction".
type PostFilter struct {
	From     *time.Time // inclusive lower bound on published_at (created_at for drafts)
	To       *time.Time // inclusive upper bound
	Statuses []string
	Locales  []string
}

// ListPostsByFilter returns all posts matching the filter, ordered by ID.
func (q *Queries) ListPostsByFilter(ctx context.Context, filter PostFilter) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var conds []string
	var args []any

	if filter.From != nil {
		conds = append(conds, `COALESCE(published_at, created_at) >= ?`)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, `COALESCE(published_at, created_at) <= ?`)
		args = append(args, *filter.To)
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, `status IN (`+placeholders(len(filter.Statuses))+`)`)
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if len(filter.Locales) > 0 {
		conds = append(conds, `locale IN (`+placeholders(len(filter.Locales))+`)`)
		for _, l := range filter.Locales {
			args = append(args, l)
		}
	}

	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns posts ordered by creation time, newest first.
func (q *Queries) ListPosts(ctx context.Context, limit, offset int64) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
