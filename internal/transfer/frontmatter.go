// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/papyrus/internal/model"
)

// frontmatterDelimiter separates the YAML header from the Markdown body.
const frontmatterDelimiter = "---"

// EntryValidationError marks a per-entry parse or validation failure.
// It never aborts an import batch; the entry is recorded with an error action
// and processing continues.
type EntryValidationError struct {
	Reason string
}

func (e *EntryValidationError) Error() string {
	return e.Reason
}

func entryErrorf(format string, args ...any) *EntryValidationError {
	return &EntryValidationError{Reason: fmt.Sprintf(format, args...)}
}

// frontmatter mirrors the on-disk YAML header of one content file.
type frontmatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date,omitempty"`
	Slug    string   `yaml:"slug,omitempty"`
	Locale  string   `yaml:"locale"`
	GroupID string   `yaml:"groupId,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Status  string   `yaml:"status,omitempty"`
	Excerpt string   `yaml:"excerpt,omitempty"`
}

// ParsedEntry is one archive content file after parsing and validation.
// All fields are fully typed; partially-validated data never reaches the
// matching logic.
type ParsedEntry struct {
	Filename string
	Title    string
	Slug     string
	Locale   string
	GroupID  string
	Status   string
	Excerpt  string
	Tags     []string
	Date     time.Time // zero when the frontmatter carries no date
	Body     string
}

// dateLayouts are accepted for the frontmatter date field, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseEntry splits a Markdown file into frontmatter and body, then validates
// the required fields. Any failure is an *EntryValidationError.
func parseEntry(filename, content string) (*ParsedEntry, error) {
	header, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, entryErrorf("malformed YAML frontmatter: %v", err)
	}

	if strings.TrimSpace(fm.Title) == "" {
		return nil, entryErrorf("missing required field: title")
	}
	if fm.Locale == "" {
		return nil, entryErrorf("missing required field: locale")
	}
	if !model.IsValidLocale(fm.Locale) {
		return nil, entryErrorf("invalid locale %q (expected EN or ZH)", fm.Locale)
	}
	if fm.Slug == "" && fm.GroupID == "" {
		return nil, entryErrorf("missing required field: slug or groupId")
	}
	if fm.Status == "" {
		fm.Status = model.StatusDraft
	}
	if !model.IsValidStatus(fm.Status) {
		return nil, entryErrorf("invalid status %q (expected DRAFT or PUBLISHED)", fm.Status)
	}

	entry := &ParsedEntry{
		Filename: filename,
		Title:    fm.Title,
		Slug:     fm.Slug,
		Locale:   fm.Locale,
		GroupID:  fm.GroupID,
		Status:   fm.Status,
		Excerpt:  fm.Excerpt,
		Tags:     fm.Tags,
		Body:     body,
	}

	if fm.Date != "" {
		t, err := parseDate(fm.Date)
		if err != nil {
			return nil, entryErrorf("invalid date %q: %v", fm.Date, err)
		}
		entry.Date = t
	}

	return entry, nil
}

// splitFrontmatter extracts the YAML header between the two --- delimiters.
func splitFrontmatter(content string) (header, body string, err error) {
	s := strings.TrimLeft(content, "\uFEFF") // strip BOM if present

	lines := strings.SplitAfterN(s, "\n", 2)
	if len(lines) < 2 || strings.TrimRight(lines[0], "\r\n") != frontmatterDelimiter {
		return "", "", entryErrorf("missing frontmatter delimiter")
	}
	rest := lines[1]

	// Find the closing delimiter on its own line.
	idx := -1
	offset := 0
	for _, line := range strings.SplitAfter(rest, "\n") {
		if strings.TrimRight(line, "\r\n") == frontmatterDelimiter {
			idx = offset
			break
		}
		offset += len(line)
	}
	if idx < 0 {
		return "", "", entryErrorf("missing closing frontmatter delimiter")
	}

	header = rest[:idx]
	body = rest[idx:]
	// Drop the delimiter line itself plus one blank separator line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	return header, body, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// serializePost renders a post as a Markdown file with YAML frontmatter.
func serializePost(p model.Post) ([]byte, error) {
	date := p.CreatedAt
	if p.PublishedAt.Valid {
		date = p.PublishedAt.Time
	}

	fm := frontmatter{
		Title:   p.Title,
		Date:    date.UTC().Format(time.RFC3339),
		Slug:    p.Slug,
		Locale:  p.Locale,
		GroupID: p.GroupID.String,
		Tags:    p.TagList(),
		Status:  p.Status,
		Excerpt: p.Excerpt,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.Write(header)
	buf.WriteString(frontmatterDelimiter + "\n\n")
	buf.WriteString(p.Content)
	if !strings.HasSuffix(p.Content, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// entryPath returns the archive path for a post: content/{locale}/{slug}.md
// with the locale lowercased.
func entryPath(p model.Post) string {
	return "content/" + strings.ToLower(p.Locale) + "/" + p.Slug + ".md"
}
