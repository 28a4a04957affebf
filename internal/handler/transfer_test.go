// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/papyrus/internal/config"
	"github.com/olegiv/papyrus/internal/model"
	"github.com/olegiv/papyrus/internal/store"
	"github.com/olegiv/papyrus/internal/testutil"
	"github.com/olegiv/papyrus/internal/transfer"
	"github.com/olegiv/papyrus/internal/util"
)

func newTransferHandler(t *testing.T) (*TransferHandler, *store.Queries) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	queries := store.New(db)
	cfg := &config.Config{AdminID: 1, MaxImportBytes: 10 << 20}
	return NewTransferHandler(queries, cfg, testutil.TestLogger()), queries
}

// buildTestArchive builds a one-entry archive with a valid manifest.
func buildTestArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mw, err := w.Create(transfer.ManifestFilename)
	require.NoError(t, err)
	manifest := transfer.Manifest{
		ExportDate:    time.Now().UTC(),
		ExportVersion: transfer.ExportVersion,
		Stats:         transfer.ManifestStats{TotalPosts: 1, PostsByLocale: map[string]int{"EN": 1}},
	}
	require.NoError(t, json.NewEncoder(mw).Encode(manifest))

	fw, err := w.Create("content/en/uploaded.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("---\ntitle: Uploaded\nslug: uploaded\nlocale: EN\n---\n\nbody\n"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func multipartArchive(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("archive", "export.zip")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestImportEndpoint(t *testing.T) {
	h, queries := newTransferHandler(t)

	body, contentType := multipartArchive(t, buildTestArchive(t))
	req := httptest.NewRequest(http.MethodPost, "/admin/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result transfer.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.DryRun)
	assert.Equal(t, 1, result.Summary.Created)

	post, err := queries.GetPostByLocaleAndSlug(context.Background(), model.LocaleEN, "uploaded")
	require.NoError(t, err)
	assert.Equal(t, "Uploaded", post.Title)
}

func TestImportEndpointDryRun(t *testing.T) {
	h, queries := newTransferHandler(t)

	body, contentType := multipartArchive(t, buildTestArchive(t))
	req := httptest.NewRequest(http.MethodPost, "/admin/import?dryRun=true", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result transfer.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Summary.Created)

	n, err := queries.CountPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestImportEndpointCorruptArchive(t *testing.T) {
	h, _ := newTransferHandler(t)

	body, contentType := multipartArchive(t, []byte("not a zip"))
	req := httptest.NewRequest(http.MethodPost, "/admin/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "archive corrupt")
}

func TestImportEndpointMissingFile(t *testing.T) {
	h, _ := newTransferHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Import(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	h, queries := newTransferHandler(t)

	now := time.Now()
	_, err := queries.CreatePost(context.Background(), store.CreatePostParams{
		Title:       "Exported",
		Slug:        "exported",
		Locale:      model.LocaleEN,
		Content:     "body\n",
		Status:      model.StatusPublished,
		AuthorID:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: util.NullTime(now),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/export", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "content/en/exported.md")
	assert.Contains(t, names, transfer.ManifestFilename)
}

func TestExportEndpointWithFilter(t *testing.T) {
	h, queries := newTransferHandler(t)

	now := time.Now()
	for _, p := range []struct {
		slug   string
		status string
	}{
		{"pub", model.StatusPublished},
		{"dra", model.StatusDraft},
	} {
		params := store.CreatePostParams{
			Title:     p.slug,
			Slug:      p.slug,
			Locale:    model.LocaleEN,
			Content:   "body\n",
			Status:    p.status,
			AuthorID:  1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if p.status == model.StatusPublished {
			params.PublishedAt = util.NullTime(now)
		}
		_, err := queries.CreatePost(context.Background(), params)
		require.NoError(t, err)
	}

	filter := `{"statuses":["PUBLISHED"]}`
	req := httptest.NewRequest(http.MethodPost, "/admin/export", bytes.NewBufferString(filter))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2, "one post plus the manifest")
	assert.Equal(t, "content/en/pub.md", zr.File[0].Name)
}
