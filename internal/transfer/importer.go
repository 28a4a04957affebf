// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/papyrus/internal/model"
	"github.com/olegiv/papyrus/internal/store"
	"github.com/olegiv/papyrus/internal/util"
)

// Importer reconciles archive entries against the post store.
type Importer struct {
	store  PostStore
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates a new Importer instance.
func NewImporter(st PostStore, logger *slog.Logger) *Importer {
	return &Importer{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// ImportFromZipBytes imports from archive bytes (useful for HTTP uploads).
// It returns ErrArchiveCorrupt (wrapped) when the archive cannot be opened or
// its manifest is absent or unparseable; every other failure is recorded per
// entry in the result and never aborts the batch.
func (i *Importer) ImportFromZipBytes(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: reading zip data: %v", ErrArchiveCorrupt, err)
	}
	return i.ImportFromZip(ctx, zipReader, opts)
}

// ImportFromZip imports all content entries of an opened archive.
//
// Entries are processed strictly in archive order with no parallelism: later
// entries may depend on store state mutated by earlier entries in the same
// batch (two entries targeting the same slug, for example).
func (i *Importer) ImportFromZip(ctx context.Context, zipReader *zip.Reader, opts ImportOptions) (*ImportResult, error) {
	manifest, err := readManifest(zipReader)
	if err != nil {
		return nil, err
	}
	if manifest.ExportVersion != ExportVersion {
		i.logger.Warn("archive version differs from current format",
			"archive", manifest.ExportVersion, "current", ExportVersion)
	}

	result := NewImportResult(opts.DryRun)

	for _, f := range zipReader.File {
		if f.Name == ManifestFilename || f.FileInfo().IsDir() {
			continue
		}
		if !isContentEntry(f.Name) {
			result.addSkipped(f.Name)
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			result.addError(f.Name, fmt.Sprintf("reading entry: %v", err))
			continue
		}

		i.processEntry(ctx, f.Name, string(content), opts, result)
	}

	return result, nil
}

// isContentEntry reports whether an archive path is a content Markdown file.
func isContentEntry(name string) bool {
	return strings.HasPrefix(name, "content/") && strings.HasSuffix(name, ".md")
}

// readManifest locates and parses manifest.json. Its absence makes the whole
// archive invalid; its stats are informational only and never drive decisions.
func readManifest(zipReader *zip.Reader) (*Manifest, error) {
	for _, f := range zipReader.File {
		if f.Name != ManifestFilename {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrArchiveCorrupt, ManifestFilename, err)
		}
		defer func() { _ = rc.Close() }()

		var manifest Manifest
		if err := json.NewDecoder(rc).Decode(&manifest); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrArchiveCorrupt, ManifestFilename, err)
		}
		return &manifest, nil
	}
	return nil, fmt.Errorf("%w: %s not found in archive", ErrArchiveCorrupt, ManifestFilename)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// processEntry parses, resolves and applies (or simulates) one archive entry.
// Every outcome appends exactly one detail record.
func (i *Importer) processEntry(ctx context.Context, filename, content string, opts ImportOptions, result *ImportResult) {
	entry, err := parseEntry(filename, content)
	if err != nil {
		result.addError(filename, err.Error())
		return
	}

	target, matchKey, err := resolveTarget(ctx, i.store, entry)
	if err != nil {
		result.addError(filename, err.Error())
		return
	}

	if target != nil {
		i.logger.Debug("entry matched existing post", "file", filename, "match", matchKey, "id", target.ID)
		i.updatePost(ctx, entry, target, opts, result)
		return
	}
	i.createPost(ctx, entry, opts, result)
}

// updatePost overwrites the target's mutable fields from the entry. GroupID
// and locale are never changed on update, and no slug collision check runs:
// the post keeps its own identity. If the entry's slug collides with a third
// unrelated post, the store's uniqueness constraint rejects the write and the
// entry is recorded as an error.
func (i *Importer) updatePost(ctx context.Context, entry *ParsedEntry, target *model.Post, opts ImportOptions, result *ImportResult) {
	slug := entry.Slug
	if slug == "" {
		slug = target.Slug
	}

	ref := &PostRef{Title: entry.Title, Slug: slug, Locale: target.Locale, GroupID: target.GroupID.String}

	if opts.DryRun {
		result.addUpdated(entry.Filename, ref)
		return
	}

	publishedAt := target.PublishedAt
	if entry.Status == model.StatusPublished && !publishedAt.Valid {
		publishedAt = util.NullTime(i.entryTime(entry))
	}

	_, err := i.store.UpdatePost(ctx, store.UpdatePostParams{
		ID:          target.ID,
		Title:       entry.Title,
		Slug:        slug,
		Content:     entry.Body,
		Excerpt:     entry.Excerpt,
		Status:      entry.Status,
		Tags:        model.JoinTags(entry.Tags),
		UpdatedAt:   i.now(),
		PublishedAt: publishedAt,
	})
	if err != nil {
		result.addError(entry.Filename, fmt.Sprintf("updating post: %v", err))
		return
	}

	result.addUpdated(entry.Filename, ref)
}

// createPost inserts a new post for an entry with no matching record. The
// declared slug (or one derived from the title) goes through the allocator;
// in dry-run mode the allocator still reads live store state, not the
// hypothetical state of earlier entries in the batch, so two colliding new
// entries in one dry run report the same slug. Known preview approximation.
func (i *Importer) createPost(ctx context.Context, entry *ParsedEntry, opts ImportOptions, result *ImportResult) {
	desired := entry.Slug
	if desired == "" {
		desired = util.Slugify(entry.Title)
	}

	slug, err := allocateSlug(ctx, i.store, entry.Locale, desired)
	if err != nil {
		result.addError(entry.Filename, err.Error())
		return
	}

	ref := &PostRef{Title: entry.Title, Slug: slug, Locale: entry.Locale, GroupID: entry.GroupID}

	if opts.DryRun {
		result.addCreated(entry.Filename, ref)
		return
	}

	createdAt := i.entryTime(entry)
	var publishedAt sql.NullTime
	if entry.Status == model.StatusPublished {
		publishedAt = util.NullTime(createdAt)
	}

	_, err = i.store.CreatePost(ctx, store.CreatePostParams{
		Title:       entry.Title,
		Slug:        slug,
		Locale:      entry.Locale,
		GroupID:     util.NullString(entry.GroupID),
		Content:     entry.Body,
		Excerpt:     entry.Excerpt,
		Status:      entry.Status,
		Tags:        model.JoinTags(entry.Tags),
		AuthorID:    opts.AdminID,
		CreatedAt:   createdAt,
		UpdatedAt:   i.now(),
		PublishedAt: publishedAt,
	})
	if err != nil {
		// Best-effort pre-check lost a race or an index we did not
		// anticipate rejected the write; surfaced, never retried.
		result.addError(entry.Filename, fmt.Sprintf("creating post: %v", err))
		return
	}

	result.addCreated(entry.Filename, ref)
}

// entryTime returns the entry's declared date, or the current time.
func (i *Importer) entryTime(entry *ParsedEntry) time.Time {
	if !entry.Date.IsZero() {
		return entry.Date
	}
	return i.now()
}
