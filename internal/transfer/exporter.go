// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olegiv/papyrus/internal/store"
)

// Exporter serializes posts into the portable archive format. Read-only with
// respect to the store.
type Exporter struct {
	store  PostStore
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(st PostStore, logger *slog.Logger) *Exporter {
	return &Exporter{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// ExportToWriter queries posts matching the filter and writes a complete
// archive to w. An empty result set still produces a valid archive with zero
// content files and totalPosts = 0.
func (e *Exporter) ExportToWriter(ctx context.Context, filter ExportFilter, w io.Writer) error {
	posts, err := e.store.ListPostsByFilter(ctx, store.PostFilter{
		From:     filter.From,
		To:       filter.To,
		Statuses: filter.Statuses,
		Locales:  filter.Locales,
	})
	if err != nil {
		return fmt.Errorf("querying posts: %w", err)
	}

	zipWriter := zip.NewWriter(w)

	manifest := Manifest{
		ExportDate:    e.now().UTC(),
		ExportVersion: ExportVersion,
		Stats: ManifestStats{
			TotalPosts:    len(posts),
			PostsByLocale: make(map[string]int),
		},
	}

	for _, post := range posts {
		data, err := serializePost(post)
		if err != nil {
			return fmt.Errorf("serializing post %d: %w", post.ID, err)
		}

		fw, err := zipWriter.Create(entryPath(post))
		if err != nil {
			return fmt.Errorf("creating archive entry for post %d: %w", post.ID, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing archive entry for post %d: %w", post.ID, err)
		}

		manifest.Stats.PostsByLocale[post.Locale]++
	}

	mw, err := zipWriter.Create(ManifestFilename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", ManifestFilename, err)
	}
	encoder := json.NewEncoder(mw)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		return fmt.Errorf("writing %s: %w", ManifestFilename, err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	e.logger.Info("export built", "posts", len(posts))
	return nil
}

// ExportBytes is ExportToWriter into a byte slice.
func (e *Exporter) ExportBytes(ctx context.Context, filter ExportFilter) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.ExportToWriter(ctx, filter, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
