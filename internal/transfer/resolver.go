// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/papyrus/internal/model"
	"github.com/olegiv/papyrus/internal/store"
)

// PostStore is the narrow store surface the engine consumes. *store.Queries
// satisfies it; tests may substitute a fake.
type PostStore interface {
	GetPostByGroupAndLocale(ctx context.Context, groupID, locale string) (model.Post, error)
	GetPostByLocaleAndSlug(ctx context.Context, locale, slug string) (model.Post, error)
	CreatePost(ctx context.Context, arg store.CreatePostParams) (model.Post, error)
	UpdatePost(ctx context.Context, arg store.UpdatePostParams) (model.Post, error)
	ListPostsByFilter(ctx context.Context, filter store.PostFilter) ([]model.Post, error)
}

// resolveTarget decides whether an entry targets an existing post, and by
// which key. Precedence: (groupId, locale) first, then (locale, slug). An
// entry whose groupId finds nothing still falls through to slug matching, so
// content that predates group linking is updated rather than duplicated.
// Pure lookup; no side effects.
func resolveTarget(ctx context.Context, st PostStore, entry *ParsedEntry) (*model.Post, string, error) {
	if entry.GroupID != "" {
		post, err := st.GetPostByGroupAndLocale(ctx, entry.GroupID, entry.Locale)
		switch {
		case err == nil:
			return &post, MatchGroupLocale, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, "", fmt.Errorf("looking up (groupId, locale): %w", err)
		}
	}

	if entry.Slug != "" {
		post, err := st.GetPostByLocaleAndSlug(ctx, entry.Locale, entry.Slug)
		switch {
		case err == nil:
			return &post, MatchLocaleSlug, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, "", fmt.Errorf("looking up (locale, slug): %w", err)
		}
	}

	return nil, "", nil
}

// allocateSlug returns a slug free of collisions with existing posts in the
// given locale, for the create path only. A taken slug gets a numeric suffix:
// -2, then -3, and so on until an unused slug is found. Deterministic for a
// fixed store state; re-importing the same "create" intent against an
// unreconciled store yields a fresh suffix on purpose — duplicate creates are
// new content, not updates.
func allocateSlug(ctx context.Context, st PostStore, locale, desired string) (string, error) {
	slug := desired
	for counter := 2; ; counter++ {
		_, err := st.GetPostByLocaleAndSlug(ctx, locale, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		slug = fmt.Sprintf("%s-%d", desired, counter)
	}
}
