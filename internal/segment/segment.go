// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment partitions raw contract text into clause and sub-clause
// spans using the header and section rules of a catalog.
package segment

import (
	"sort"
	"strings"

	"github.com/pdiddy/clause-engine/internal/catalog"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// Span is one header occurrence and the text it governs.
type Span struct {
	Rule  string
	Level catalog.HeaderLevel

	// Number is canonical ("04.1." becomes "4.1"). RawNumber is the text
	// captured by the header rule.
	Number    string
	RawNumber string
	Title     string
	Kind      types.ContentKind

	// Page is the page the header line starts on, zero without markers.
	Page int

	// Offset is the byte offset of the header line in the input.
	Offset int

	// Body is the trimmed text between the header line and the line that
	// closes the span. A body includes every header nested in it.
	Body string
}

// Segmenter walks text line by line. It holds no per-document state and
// can be shared.
type Segmenter struct {
	cat *catalog.Catalog
}

// New returns a Segmenter over the given catalog.
func New(cat *catalog.Catalog) *Segmenter {
	return &Segmenter{cat: cat}
}

type open struct {
	idx       int
	level     catalog.HeaderLevel
	number    string
	bodyStart int
}

// Segment returns spans in header order. A section line closes every open
// span and switches the active content kind. A header closes the open spans
// it cannot nest in: a span nests when its number extends the open span's
// number ("4.1.1" under "4.1"), and a sub-clause header always nests in an
// open clause. Text without any recognised header yields nil.
func (s *Segmenter) Segment(text string, pages []types.PageMarker) []Span {
	pages = sortedMarkers(pages)
	active := s.cat.DefaultKind

	var spans []Span
	var stack []open

	closeTop := func(end int) {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		start := o.bodyStart
		if start > end {
			start = end
		}
		spans[o.idx].Body = strings.TrimSpace(text[start:end])
	}
	closeAll := func(end int) {
		for len(stack) > 0 {
			closeTop(end)
		}
	}

	pos := 0
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if lineEnd >= 0 {
			lineEnd += pos
			next = lineEnd + 1
		} else {
			lineEnd = len(text)
		}
		line := strings.TrimSpace(text[pos:lineEnd])

		if line == "" {
			pos = next
			continue
		}

		if r, ok := s.cat.MatchSection(line); ok {
			closeAll(pos)
			active = r.Kind
			pos = next
			continue
		}

		h, ok := s.cat.MatchHeader(line)
		if !ok {
			pos = next
			continue
		}

		number := types.CanonicalNumber(h.Number)
		for len(stack) > 0 && !nests(stack[len(stack)-1], h.Level, number) {
			closeTop(pos)
		}

		kind := h.Kind
		if kind == "" {
			kind = active
		}
		spans = append(spans, Span{
			Rule:      h.Rule,
			Level:     h.Level,
			Number:    number,
			RawNumber: h.Number,
			Title:     h.Title,
			Kind:      kind,
			Page:      pageAt(pages, pos),
			Offset:    pos,
		})
		stack = append(stack, open{idx: len(spans) - 1, level: h.Level, number: number, bodyStart: next})
		pos = next
	}

	closeAll(len(text))
	return spans
}

// nests reports whether a header of the given level and number belongs
// inside the open span parent.
func nests(parent open, level catalog.HeaderLevel, number string) bool {
	if number == "" {
		return false
	}
	if parent.level == catalog.HeaderClause && level == catalog.HeaderSubClause {
		return true
	}
	return parent.number != "" && strings.HasPrefix(number, parent.number+".")
}

func sortedMarkers(pages []types.PageMarker) []types.PageMarker {
	if sort.SliceIsSorted(pages, func(i, j int) bool { return pages[i].Offset < pages[j].Offset }) {
		return pages
	}
	out := make([]types.PageMarker, len(pages))
	copy(out, pages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// pageAt returns the page of the last marker at or before offset. Text
// before the first marker belongs to the first marker's page.
func pageAt(pages []types.PageMarker, offset int) int {
	if len(pages) == 0 {
		return 0
	}
	i := sort.Search(len(pages), func(i int) bool { return pages[i].Offset > offset })
	if i == 0 {
		return pages[0].Page
	}
	return pages[i-1].Page
}
