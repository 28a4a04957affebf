// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the core entities of the Papyrus content platform.
package model

import (
	"database/sql"
	"strings"
	"time"
)

// Post locales. A post exists in exactly one locale; translations of the
// same logical content share a group ID.
const (
	LocaleEN = "EN"
	LocaleZH = "ZH"
)

// Post statuses
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
)

// Locales lists all valid post locales.
var Locales = []string{LocaleEN, LocaleZH}

// Statuses lists all valid post statuses.
var Statuses = []string{StatusDraft, StatusPublished}

// IsValidLocale reports whether s is a known locale value.
func IsValidLocale(s string) bool {
	return s == LocaleEN || s == LocaleZH
}

// IsValidStatus reports whether s is a known status value.
func IsValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// Post represents one localized piece of content.
//
// (locale, slug) is unique across all posts. GroupID links translations of
// the same logical content; when set, at most one post per (group_id, locale)
// pair may exist. Both constraints are enforced by the store schema.
type Post struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Locale      string         `json:"locale"`
	GroupID     sql.NullString `json:"group_id,omitempty"`
	Content     string         `json:"content"`
	Excerpt     string         `json:"excerpt,omitempty"`
	Status      string         `json:"status"`
	Tags        string         `json:"tags,omitempty"` // comma-joined
	AuthorID    int64          `json:"author_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt sql.NullTime   `json:"published_at,omitempty"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsDraft returns true if the post is a draft.
func (p *Post) IsDraft() bool {
	return p.Status == StatusDraft
}

// TagList splits the comma-joined tags column into an ordered slice.
func (p *Post) TagList() []string {
	return SplitTags(p.Tags)
}

// SplitTags splits a comma-joined tag string, trimming whitespace and
// dropping empty elements. Empty input yields nil, never []string{""}.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
