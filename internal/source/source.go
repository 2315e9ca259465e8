// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source obtains raw document text and page markers from local
// files or HTTP URLs. Supported formats: plain text, Markdown, PDF, DOCX.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// ErrInputUnavailable means the raw text of a document could not be
// obtained. It is fatal for that document only.
var ErrInputUnavailable = errors.New("input unavailable")

// Document is raw text plus the byte offsets at which pages start.
type Document struct {
	ID    string
	Ref   string
	Text  string
	Pages []types.PageMarker
}

// Provider reads a document reference.
type Provider struct {
	http types.HTTPConfig
}

// New returns a Provider that fetches URLs with the given settings.
func New(cfg types.HTTPConfig) *Provider {
	return &Provider{http: cfg}
}

// Open reads ref, a file path or an http(s) URL, and parses it by
// extension. Every failure wraps ErrInputUnavailable.
func (p *Provider) Open(ctx context.Context, ref string) (*Document, error) {
	id := DocumentID(ref)

	var (
		data []byte
		ext  string
		err  error
	)
	if isURL(ref) {
		var contentType string
		data, contentType, err = p.fetch(ctx, ref)
		ext = urlExt(ref, contentType)
	} else {
		data, err = os.ReadFile(ref)
		ext = strings.ToLower(filepath.Ext(ref))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, id, err)
	}

	text, pages, err := Parse(ext, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, id, err)
	}
	return &Document{ID: id, Ref: ref, Text: text, Pages: pages}, nil
}

// Parse converts raw bytes in the format named by ext (".txt", ".md",
// ".pdf", ".docx") into text and page markers.
func Parse(ext string, data []byte) (string, []types.PageMarker, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".text", "":
		text, pages := parseText(data)
		return text, pages, nil
	case ".md", ".markdown":
		text, pages := parseMarkdown(data)
		return text, pages, nil
	case ".pdf":
		return parsePDF(data)
	case ".docx":
		return parseDOCX(data)
	}
	return "", nil, fmt.Errorf("unsupported format %q", ext)
}

// DocumentID derives a stable, path-safe id from a file path or URL.
func DocumentID(ref string) string {
	base := filepath.Base(ref)
	if isURL(ref) {
		base = ""
		if u, err := url.Parse(ref); err == nil && strings.Trim(u.Path, "/") != "" {
			base = path.Base(u.Path)
		}
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if id := types.Slug(base, 80); id != "" {
		return id
	}
	return "document"
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// pageBuilder accumulates lines of output text and the markers that
// attribute them to pages.
type pageBuilder struct {
	sb    strings.Builder
	pages []types.PageMarker
}

// mark starts page at the current offset. A second mark at the same
// offset replaces the first.
func (b *pageBuilder) mark(page int) {
	off := b.sb.Len()
	if n := len(b.pages); n > 0 && b.pages[n-1].Offset == off {
		b.pages[n-1].Page = page
		return
	}
	b.pages = append(b.pages, types.PageMarker{Offset: off, Page: page})
}

func (b *pageBuilder) line(s string) {
	b.sb.WriteString(strings.TrimRight(s, " \t\r"))
	b.sb.WriteByte('\n')
}

func (b *pageBuilder) blank() {
	b.sb.WriteByte('\n')
}

func (b *pageBuilder) result() (string, []types.PageMarker) {
	return b.sb.String(), b.pages
}
