// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package builder turns segmented spans into clause nodes: obligations,
// parties, keywords, classification and truncated text.
package builder

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/catalog"
	"github.com/pdiddy/clause-engine/internal/segment"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// Builder builds nodes for one document at a time. It keeps no state
// between calls and may be shared.
type Builder struct {
	cat *catalog.Catalog
	cfg types.ExtractionConfig
	log *zap.Logger
}

// New returns a Builder. A nil logger discards diagnostics output.
func New(cat *catalog.Catalog, cfg types.ExtractionConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{cat: cat, cfg: cfg.WithDefaults(), log: log}
}

// Result holds the nodes in order of first appearance plus every
// diagnostic raised along the way.
type Result struct {
	Nodes       []*types.ClauseNode
	Diagnostics []types.Diagnostic
}

// Build converts spans into nodes. Spans sharing an id are merged: the
// later span supplies the text fields and obligations accumulate. Build
// never fails; malformed spans produce partial nodes and diagnostics.
func (b *Builder) Build(spans []segment.Span) Result {
	var res Result
	byID := make(map[string]*types.ClauseNode)

	for _, sp := range spans {
		if sp.Number == "" {
			res.Diagnostics = append(res.Diagnostics, b.diag(sp.RawNumber, types.DiagInvalidNumber,
				fmt.Sprintf("header %q captured no usable clause number", sp.RawNumber)))
			continue
		}

		node := b.node(sp)
		res.Diagnostics = append(res.Diagnostics, b.check(sp, node.ID)...)

		prev, ok := byID[node.ID]
		if !ok {
			byID[node.ID] = node
			res.Nodes = append(res.Nodes, node)
			continue
		}
		res.Diagnostics = append(res.Diagnostics, b.diag(node.ID, types.DiagDuplicate,
			fmt.Sprintf("header repeated at offset %d; later text kept, obligations appended", sp.Offset)))
		merge(prev, node)
	}
	return res
}

func (b *Builder) node(sp segment.Span) *types.ClauseNode {
	own := ownText(b.cat, sp.Body)
	fullText, truncated := truncateRunes(sp.Body, b.cfg.FullTextCap)
	obligations := b.obligations(own)
	category := b.cat.Categorize(sp.Title, sp.Body)

	return &types.ClauseNode{
		ID:                types.NodeID(sp.Kind, sp.Number),
		Number:            sp.Number,
		Title:             sp.Title,
		Level:             types.LevelOf(sp.Number),
		FullText:          fullText,
		FullTextTruncated: truncated,
		Summary:           summarize(sp.Kind, own, b.cfg.SummaryMaxLen),
		ContentKind:       sp.Kind,
		Page:              sp.Page,
		Obligations:       obligations,
		RelatedClauses:    b.references(sp),
		Keywords:          b.keywords(sp.Title + "\n" + sp.Body),
		Parties:           matchValues(b.cat.FindParties(sp.Title + "\n" + sp.Body)),
		Metadata: types.NodeMetadata{
			Category: category,
			Importance: b.cat.Rate(catalog.ImportanceInput{
				Number:      sp.Number,
				Title:       sp.Title,
				Body:        sp.Body,
				Category:    category,
				Obligations: len(obligations),
			}),
			ExternalRefs: matchValues(b.cat.FindExternalReferences(sp.Title + "\n" + sp.Body)),
		},
		Children: []string{},
	}
}

// check reports the structural defects of a span.
func (b *Builder) check(sp segment.Span, id string) []types.Diagnostic {
	var out []types.Diagnostic
	if sp.Title == "" {
		out = append(out, b.diag(id, types.DiagMissingTitle, "header has no title"))
	}
	if sp.Body == "" {
		out = append(out, b.diag(id, types.DiagEmptyBody, "header has no body text"))
	}
	depth := types.LevelOf(sp.Number)
	switch {
	case sp.Level == catalog.HeaderClause && depth > 1:
		out = append(out, b.diag(id, types.DiagHeaderDepth,
			fmt.Sprintf("clause header carries %d-level number %s", depth, sp.Number)))
	case sp.Level == catalog.HeaderSubClause && depth < 2:
		out = append(out, b.diag(id, types.DiagHeaderDepth,
			fmt.Sprintf("sub-clause header carries top-level number %s", sp.Number)))
	}
	return out
}

func (b *Builder) diag(id string, kind types.DiagnosticKind, detail string) types.Diagnostic {
	b.log.Warn("malformed span",
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.String("detail", detail),
	)
	return types.Diagnostic{ID: id, Kind: kind, Detail: detail}
}

// references collects clause numbers cited in the span body, including a
// citation wrapped across a line break. Header and section lines are
// dropped first so nested sub-clause headings do not count as citations.
// The node's own number is kept: a guidance node citing its operative
// namesake is a real link, and the resolver drops true self references.
func (b *Builder) references(sp segment.Span) []string {
	var kept []string
	for _, line := range strings.Split(sp.Body, "\n") {
		if _, ok := b.cat.MatchHeader(line); ok {
			continue
		}
		if _, ok := b.cat.MatchSection(line); ok {
			continue
		}
		kept = append(kept, line)
	}
	out := b.cat.CrossReferenceNumbers(strings.Join(kept, "\n"))
	if out == nil {
		out = []string{}
	}
	sortNumbers(out)
	return out
}

// ownText returns the body up to the first nested header line: the text
// that belongs to this node and not to one of its sub-clauses.
func ownText(cat *catalog.Catalog, body string) string {
	pos := 0
	for pos < len(body) {
		end := strings.IndexByte(body[pos:], '\n')
		next := len(body)
		if end >= 0 {
			end += pos
			next = end + 1
		} else {
			end = len(body)
		}
		if _, ok := cat.MatchHeader(body[pos:end]); ok {
			return strings.TrimSpace(body[:pos])
		}
		pos = next
	}
	return body
}

// merge folds a later occurrence of the same id into prev.
func merge(prev, later *types.ClauseNode) {
	prev.FullText = later.FullText
	prev.FullTextTruncated = later.FullTextTruncated
	prev.Summary = later.Summary
	prev.Page = later.Page
	if later.Title != "" {
		prev.Title = later.Title
	}
	prev.Keywords = later.Keywords
	prev.Metadata.Category = later.Metadata.Category
	prev.Metadata.Importance = types.MaxImportance(prev.Metadata.Importance, later.Metadata.Importance)
	prev.Obligations = append(prev.Obligations, later.Obligations...)
	prev.Parties = union(prev.Parties, later.Parties)
	prev.Metadata.ExternalRefs = union(prev.Metadata.ExternalRefs, later.Metadata.ExternalRefs)
	prev.RelatedClauses = unionNumbers(prev.RelatedClauses, later.RelatedClauses)
}

func matchValues(ms []catalog.Match) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range ms {
		v := m.Value
		if v == "" {
			v = m.Text
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := []string{}
	for _, v := range append(append([]string{}, a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func unionNumbers(a, b []string) []string {
	out := union(a, b)
	sortNumbers(out)
	return out
}

func sortNumbers(ns []string) {
	sort.SliceStable(ns, func(i, j int) bool { return types.CompareNumbers(ns[i], ns[j]) < 0 })
}
