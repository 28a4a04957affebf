// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/papyrus/internal/config"
	"github.com/olegiv/papyrus/internal/store"
	"github.com/olegiv/papyrus/internal/transfer"
)

// TransferHandler handles the import/export endpoints.
type TransferHandler struct {
	queries *store.Queries
	cfg     *config.Config
	logger  *slog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(queries *store.Queries, cfg *config.Config, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{
		queries: queries,
		cfg:     cfg,
		logger:  logger,
	}
}

// Import handles POST /admin/import?dryRun=<bool> with a multipart "archive"
// file. The engine isolates per-entry failures; only a corrupt archive
// produces a non-200 response. Whether a dry run with errors may be applied
// is this layer's decision, surfaced to the client via the result body.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))

	if err := r.ParseMultipartForm(h.cfg.MaxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing archive file")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.cfg.MaxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("archive too large (max %d MB)", h.cfg.MaxImportBytes/(1<<20)))
		return
	}

	content, err := readCapped(file, h.cfg.MaxImportBytes)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	importer := transfer.NewImporter(h.queries, h.logger)
	result, err := importer.ImportFromZipBytes(r.Context(), content, transfer.ImportOptions{
		DryRun:  dryRun,
		AdminID: h.cfg.AdminID,
	})
	if err != nil {
		if errors.Is(err, transfer.ErrArchiveCorrupt) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	h.logger.Info("import finished",
		"dry_run", result.DryRun,
		"created", result.Summary.Created,
		"updated", result.Summary.Updated,
		"skipped", result.Summary.Skipped,
		"errors", result.Summary.Errors)

	writeJSON(w, http.StatusOK, result)
}

// Export handles POST /admin/export with a JSON filter body and responds
// with the archive as a zip attachment. An empty body exports everything.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	var filter transfer.ExportFilter
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter: "+err.Error())
			return
		}
	}

	exporter := transfer.NewExporter(h.queries, h.logger)
	data, err := exporter.ExportBytes(r.Context(), filter)
	if err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("papyrus-export-%s.zip", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// readCapped reads at most maxBytes from r, failing if the input is larger.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(r, maxBytes+1)
	content, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("file is too large (max %d MB)", maxBytes/(1<<20))
	}
	return content, nil
}
