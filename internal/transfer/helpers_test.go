// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/papyrus/internal/store"
	"github.com/olegiv/papyrus/internal/testutil"
)

// testSetup contains common test dependencies.
type testSetup struct {
	DB      *sql.DB
	Queries *store.Queries
	Ctx     context.Context
	Now     time.Time
}

// setupTest creates a migrated test database and bound queries.
func setupTest(t *testing.T) *testSetup {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	return &testSetup{
		DB:      db,
		Queries: store.New(db),
		Ctx:     context.Background(),
		Now:     time.Now(),
	}
}

// archiveFile is one file to place into a test archive.
type archiveFile struct {
	Name    string
	Content string
}

// buildArchive assembles a zip with a valid manifest plus the given files,
// preserving their order.
func buildArchive(t *testing.T, files ...archiveFile) []byte {
	t.Helper()

	manifest := Manifest{
		ExportDate:    time.Now().UTC(),
		ExportVersion: ExportVersion,
		Stats:         ManifestStats{TotalPosts: len(files), PostsByLocale: map[string]int{}},
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshaling manifest: %v", err)
	}

	all := append([]archiveFile{{Name: ManifestFilename, Content: string(data)}}, files...)
	return buildRawArchive(t, all...)
}

// buildRawArchive assembles a zip from exactly the given files, with no
// implicit manifest.
func buildRawArchive(t *testing.T, files ...archiveFile) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Name)
		if err != nil {
			t.Fatalf("creating archive entry %s: %v", f.Name, err)
		}
		if _, err := fw.Write([]byte(f.Content)); err != nil {
			t.Fatalf("writing archive entry %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

// entryContent renders a Markdown content file with the given frontmatter
// lines and body.
func entryContent(frontmatterLines []string, body string) string {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	for _, line := range frontmatterLines {
		buf.WriteString(line + "\n")
	}
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.String()
}

// readArchive opens zip bytes and returns the contained files by name.
func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening entry %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("reading entry %s: %v", f.Name, err)
		}
		_ = rc.Close()
		out[f.Name] = buf.String()
	}
	return out
}
