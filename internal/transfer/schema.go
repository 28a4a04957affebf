// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer implements the bidirectional converter between the post
// store and the portable archive format: a ZIP of Markdown files with YAML
// frontmatter plus a manifest.json.
package transfer

import (
	"errors"
	"time"
)

// ExportVersion is the current version of the archive format. Imports do not
// hard-fail on a mismatch yet; the field exists so future versions can reject
// incompatible archives.
const ExportVersion = "1.0"

// ManifestFilename is the name of the archive metadata file.
const ManifestFilename = "manifest.json"

// ErrArchiveCorrupt indicates the archive cannot be opened or its manifest is
// absent or unparseable. This is the only fatal import error; everything else
// is isolated per entry.
var ErrArchiveCorrupt = errors.New("archive corrupt")

// Manifest is the archive metadata, one per archive.
type Manifest struct {
	ExportDate    time.Time     `json:"exportDate"`
	ExportVersion string        `json:"exportVersion"`
	Stats         ManifestStats `json:"stats"`
}

// ManifestStats carries informational counts. The importer never reads them
// for decision-making; it iterates the archive entries directly.
type ManifestStats struct {
	TotalPosts    int            `json:"totalPosts"`
	PostsByLocale map[string]int `json:"postsByLocale"`
}

// ImportOptions configures an import run.
type ImportOptions struct {
	// DryRun simulates all mutations: the store is read but never written.
	DryRun bool
	// AdminID attributes created posts to an author. Not used in matching logic.
	AdminID int64
}

// Import actions recorded per archive entry.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
	ActionError   = "error"
)

// Match keys reported by the identity resolver.
const (
	MatchGroupLocale = "groupId+locale"
	MatchLocaleSlug  = "locale+slug"
)

// ImportSummary counts outcomes across one import run.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// PostRef is the partial post recorded in import details.
type PostRef struct {
	Title   string `json:"title,omitempty"`
	Slug    string `json:"slug,omitempty"`
	Locale  string `json:"locale,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// ImportDetail records the outcome for one archive file, in archive
// iteration order.
type ImportDetail struct {
	Filename string   `json:"filename"`
	Action   string   `json:"action"`
	Post     *PostRef `json:"post,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ImportResult is the structured outcome of one import run. It is created
// fresh per invocation and never persisted.
type ImportResult struct {
	DryRun  bool           `json:"dryRun"`
	Summary ImportSummary  `json:"summary"`
	Details []ImportDetail `json:"details"`
}

// NewImportResult creates an empty result for a run.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{DryRun: dryRun, Details: []ImportDetail{}}
}

func (r *ImportResult) addCreated(filename string, post *PostRef) {
	r.Summary.Created++
	r.Details = append(r.Details, ImportDetail{Filename: filename, Action: ActionCreated, Post: post})
}

func (r *ImportResult) addUpdated(filename string, post *PostRef) {
	r.Summary.Updated++
	r.Details = append(r.Details, ImportDetail{Filename: filename, Action: ActionUpdated, Post: post})
}

func (r *ImportResult) addSkipped(filename string) {
	r.Summary.Skipped++
	r.Details = append(r.Details, ImportDetail{Filename: filename, Action: ActionSkipped})
}

func (r *ImportResult) addError(filename, reason string) {
	r.Summary.Errors++
	r.Details = append(r.Details, ImportDetail{Filename: filename, Action: ActionError, Error: reason})
}

// HasErrors reports whether any entry failed. Callers offering a dry-run
// preview should block "apply" when this is true.
func (r *ImportResult) HasErrors() bool {
	return r.Summary.Errors > 0
}

// ExportFilter selects which posts an export includes. Absent fields mean
// "no restriction"; all provided predicates combine with AND semantics.
type ExportFilter struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Statuses []string   `json:"statuses,omitempty"`
	Locales  []string   `json:"locales,omitempty"`
}
