// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/papyrus/internal/config"
	"github.com/olegiv/papyrus/internal/model"
	"github.com/olegiv/papyrus/internal/store"
	"github.com/olegiv/papyrus/internal/util"
)

const defaultPageSize = 20

// PostsHandler serves the posts JSON API.
type PostsHandler struct {
	queries  *store.Queries
	cfg      *config.Config
	logger   *slog.Logger
	markdown goldmark.Markdown
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(queries *store.Queries, cfg *config.Config, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		queries: queries,
		cfg:     cfg,
		logger:  logger,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Locale      string     `json:"locale"`
	GroupID     string     `json:"group_id,omitempty"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags,omitempty"`
	AuthorID    int64      `json:"author_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func postToResponse(p model.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Locale:      p.Locale,
		GroupID:     util.NullStringValue(p.GroupID),
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		Tags:        p.TagList(),
		AuthorID:    p.AuthorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		PublishedAt: util.NullTimePtr(p.PublishedAt),
	}
}

// List handles GET /api/posts.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultPageSize)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	var offset int64
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			offset = n
		}
	}

	posts, err := h.queries.ListPosts(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing posts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, postToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/posts/{id}.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, postToResponse(post))
}

// GetHTML handles GET /api/posts/{id}/html, returning the Markdown body
// rendered to HTML.
func (h *PostsHandler) GetHTML(w http.ResponseWriter, r *http.Request) {
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(post.Content), &buf); err != nil {
		h.logger.Error("rendering markdown", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render post")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug,omitempty"`
	Locale  string   `json:"locale"`
	GroupID string   `json:"group_id,omitempty"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt,omitempty"`
	Status  string   `json:"status,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	// NewGroup mints a fresh group ID so translations can be attached later.
	NewGroup bool `json:"new_group,omitempty"`
}

// Create handles POST /api/posts. A missing slug is derived from the title.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !model.IsValidLocale(req.Locale) {
		writeError(w, http.StatusBadRequest, "locale must be EN or ZH")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusDraft
	}
	if !model.IsValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "status must be DRAFT or PUBLISHED")
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(slug) {
		writeError(w, http.StatusBadRequest, "invalid slug")
		return
	}

	groupID := req.GroupID
	if groupID == "" && req.NewGroup {
		groupID = uuid.NewString()
	}

	now := time.Now()
	var publishedAt sql.NullTime
	if req.Status == model.StatusPublished {
		publishedAt = util.NullTime(now)
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       req.Title,
		Slug:        slug,
		Locale:      req.Locale,
		GroupID:     util.NullString(groupID),
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Status:      req.Status,
		Tags:        model.JoinTags(req.Tags),
		AuthorID:    h.cfg.AdminID,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: publishedAt,
	})
	if err != nil {
		h.logger.Error("creating post", "slug", slug, "error", err)
		writeError(w, http.StatusConflict, "failed to create post: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, postToResponse(post))
}

// findPost resolves the {id} URL parameter to a post, writing the error
// response itself on failure.
func (h *PostsHandler) findPost(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return model.Post{}, false
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "post not found")
		return model.Post{}, false
	}
	if err != nil {
		h.logger.Error("fetching post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return model.Post{}, false
	}
	return post, true
}
