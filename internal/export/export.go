// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes a resolved clause forest into JSON artifacts:
// one per top-level node, with sub-clauses nested as objects, followed by
// one index artifact.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/resolve"
	"github.com/pdiddy/clause-engine/pkg/types"
)

const (
	indexName = "index.json"
	slugLimit = 50

	StatusExtracted = "extracted"
	StatusEmpty     = "empty"
)

// ClauseArtifact is the per-clause JSON object. SubClauses always holds
// nested child objects.
type ClauseArtifact struct {
	ClauseID          string             `json:"clauseId"`
	ClauseNumber      string             `json:"clauseNumber"`
	Title             string             `json:"title"`
	Level             int                `json:"level"`
	Summary           string             `json:"summary"`
	FullText          string             `json:"fullText"`
	FullTextTruncated bool               `json:"fullTextTruncated"`
	ContentKind       types.ContentKind  `json:"contentKind"`
	Page              int                `json:"page,omitempty"`
	Obligations       []types.Obligation `json:"obligations"`
	RelatedClauses    []string           `json:"relatedClauses"`
	Keywords          []string           `json:"keywords"`
	Parties           []string           `json:"parties"`
	Metadata          ArtifactMetadata   `json:"metadata"`
	SubClauses        []ClauseArtifact   `json:"subClauses"`
}

// ArtifactMetadata is the metadata block of a clause artifact.
type ArtifactMetadata struct {
	Category      types.Category   `json:"category"`
	Importance    types.Importance `json:"importance"`
	HasSubClauses bool             `json:"hasSubClauses"`
	References    References       `json:"references"`
}

// References lists resolved clause numbers and external documents.
type References struct {
	CrossReferences []string `json:"crossReferences"`
	ExternalDocs    []string `json:"externalDocs"`
}

// IndexEntry is one node in the index. Artifact names the clause artifact
// that contains the node.
type IndexEntry struct {
	ID          string            `json:"id"`
	Number      string            `json:"number"`
	Title       string            `json:"title"`
	Category    types.Category    `json:"category"`
	ContentKind types.ContentKind `json:"contentKind"`
	Artifact    string            `json:"artifact"`
}

// Index is the master artifact of a document. It is written last; an
// artifact it names that is not yet readable is still being generated.
type Index struct {
	Document             string                      `json:"document"`
	Status               string                      `json:"status"`
	TotalNodes           int                         `json:"totalNodes"`
	Nodes                []IndexEntry                `json:"nodes"`
	UnresolvedReferences []types.UnresolvedReference `json:"unresolvedReferences"`
	Orphans              []types.Orphan              `json:"orphans"`
	NumberingIssues      []types.NumberingIssue      `json:"numberingIssues"`
	Diagnostics          []types.Diagnostic          `json:"diagnostics"`
	FailedArtifacts      []string                    `json:"failedArtifacts"`
}

// Outcome reports what an export wrote.
type Outcome struct {
	Written []string
	Failed  []string
	Index   *Index

	// Pruned lists stale artifacts from an earlier run that were removed.
	Pruned []string
}

// Exporter writes artifacts to a sink.
type Exporter struct {
	sink Sink
	log  *zap.Logger
}

// New returns an Exporter. A nil logger discards output.
func New(sink Sink, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{sink: sink, log: log}
}

// Export writes one artifact per root of f, then the index. A failed
// write is logged and collected; the remaining writes still run.
func (e *Exporter) Export(ctx context.Context, doc string, f *resolve.Forest, diags []types.Diagnostic) Outcome {
	var out Outcome
	idx := &Index{
		Document:             doc,
		Status:               StatusExtracted,
		TotalNodes:           len(f.Nodes),
		Nodes:                []IndexEntry{},
		UnresolvedReferences: f.Report.UnresolvedReferences,
		Orphans:              f.Report.Orphans,
		NumberingIssues:      f.Report.NumberingIssues,
		Diagnostics:          diags,
		FailedArtifacts:      []string{},
	}
	if len(f.Nodes) == 0 {
		idx.Status = StatusEmpty
	}
	if idx.Diagnostics == nil {
		idx.Diagnostics = []types.Diagnostic{}
	}

	artifactOf := make(map[string]string, len(f.Nodes))
	for _, rootID := range f.Roots {
		root, _ := f.Node(rootID)
		name := doc + "/" + ArtifactName(root)
		for _, n := range f.Subtree(rootID) {
			artifactOf[n.ID] = name
		}

		data, err := encode(buildArtifact(f, root))
		if err == nil {
			err = e.sink.Put(ctx, name, data)
		}
		if err != nil {
			e.log.Error("artifact write failed", zap.String("document", doc), zap.String("artifact", name), zap.Error(err))
			out.Failed = append(out.Failed, name)
			idx.FailedArtifacts = append(idx.FailedArtifacts, name)
			continue
		}
		out.Written = append(out.Written, name)
	}

	for _, n := range f.Nodes {
		idx.Nodes = append(idx.Nodes, IndexEntry{
			ID:          n.ID,
			Number:      n.Number,
			Title:       n.Title,
			Category:    n.Metadata.Category,
			ContentKind: n.ContentKind,
			Artifact:    artifactOf[n.ID],
		})
	}

	name := doc + "/" + indexName
	data, err := encode(idx)
	if err == nil {
		err = e.sink.Put(ctx, name, data)
	}
	if err != nil {
		e.log.Error("index write failed", zap.String("document", doc), zap.Error(err))
		out.Failed = append(out.Failed, name)
	} else {
		out.Written = append(out.Written, name)
	}
	out.Index = idx
	out.Pruned = e.prune(ctx, doc, out)
	return out
}

// prune drops artifacts of doc that this export did not produce. A failed
// artifact keeps its previous version. Prune errors are logged only.
func (e *Exporter) prune(ctx context.Context, doc string, out Outcome) []string {
	p, ok := e.sink.(Pruner)
	if !ok {
		return nil
	}
	keep := make([]string, 0, len(out.Written)+len(out.Failed))
	keep = append(keep, out.Written...)
	keep = append(keep, out.Failed...)
	removed, err := p.Prune(ctx, doc, keep)
	if err != nil {
		e.log.Warn("pruning stale artifacts failed", zap.String("document", doc), zap.Error(err))
	}
	if len(removed) > 0 {
		e.log.Info("pruned stale artifacts", zap.String("document", doc), zap.Strings("artifacts", removed))
	}
	return removed
}

func buildArtifact(f *resolve.Forest, n *types.ClauseNode) ClauseArtifact {
	a := ClauseArtifact{
		ClauseID:          n.ID,
		ClauseNumber:      n.Number,
		Title:             n.Title,
		Level:             n.Level,
		Summary:           n.Summary,
		FullText:          n.FullText,
		FullTextTruncated: n.FullTextTruncated,
		ContentKind:       n.ContentKind,
		Page:              n.Page,
		Obligations:       nonNil(n.Obligations),
		RelatedClauses:    nonNil(n.RelatedClauses),
		Keywords:          nonNil(n.Keywords),
		Parties:           nonNil(n.Parties),
		Metadata: ArtifactMetadata{
			Category:      n.Metadata.Category,
			Importance:    n.Metadata.Importance,
			HasSubClauses: len(n.Children) > 0,
			References: References{
				CrossReferences: f.ReferencedNumbers(n),
				ExternalDocs:    nonNil(n.Metadata.ExternalRefs),
			},
		},
		SubClauses: []ClauseArtifact{},
	}
	for _, id := range n.Children {
		if c, ok := f.Node(id); ok {
			a.SubClauses = append(a.SubClauses, buildArtifact(f, c))
		}
	}
	return a
}

// encode renders v as indented JSON without HTML escaping, so clause text
// containing '<' or '&' stays readable.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// ArtifactName returns the file name of a root node's artifact, for
// example "clause-04-the-contractor.json" or
// "guidance-clause-04-1-contractor-s-general-obligations.json".
func ArtifactName(n *types.ClauseNode) string {
	segs := strings.Split(n.Number, ".")
	if v, err := strconv.Atoi(segs[0]); err == nil {
		segs[0] = fmt.Sprintf("%02d", v)
	}
	name := "clause-" + strings.Join(segs, "-")
	if !n.ContentKind.Operative() && n.ContentKind != "" {
		name = strings.ReplaceAll(string(n.ContentKind), "_", "-") + "-" + name
	}
	if slug := types.Slug(n.Title, slugLimit); slug != "" {
		name += "-" + slug
	}
	return name + ".json"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
