// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one document through segmentation, node building,
// resolution and export, and runs batches of documents in parallel.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/clause-engine/internal/builder"
	"github.com/pdiddy/clause-engine/internal/catalog"
	"github.com/pdiddy/clause-engine/internal/export"
	"github.com/pdiddy/clause-engine/internal/resolve"
	"github.com/pdiddy/clause-engine/internal/segment"
	"github.com/pdiddy/clause-engine/internal/source"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// Opener obtains raw document text.
type Opener interface {
	Open(ctx context.Context, ref string) (*source.Document, error)
}

// Pipeline holds the shared, read-only stages. One Pipeline serves any
// number of concurrent documents.
type Pipeline struct {
	opener    Opener
	segmenter *segment.Segmenter
	builder   *builder.Builder
	exporter  *export.Exporter
	log       *zap.Logger
}

// New wires the stages around a catalog and a sink.
func New(cat *catalog.Catalog, cfg types.ExtractionConfig, opener Opener, sink export.Sink, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		opener:    opener,
		segmenter: segment.New(cat),
		builder:   builder.New(cat, cfg, log),
		exporter:  export.New(sink, log),
		log:       log,
	}
}

// Result is the outcome of one document. It is returned for every
// data-quality outcome, including documents without headers.
type Result struct {
	DocumentID      string
	Nodes           []*types.ClauseNode
	Roots           []string
	Report          types.ResolveReport
	Diagnostics     []types.Diagnostic
	Empty           bool
	Written         []string
	FailedArtifacts []string
	Pruned          []string
}

// Err returns ErrNoHeadersFound for an empty result, nil otherwise.
func (r *Result) Err() error {
	if r.Empty {
		return ErrNoHeadersFound
	}
	return nil
}

// Run processes one document already in memory. Each stage consumes the
// whole output of the previous one.
func (p *Pipeline) Run(ctx context.Context, doc *source.Document) *Result {
	log := p.log.With(zap.String("document", doc.ID))

	spans := p.segmenter.Segment(doc.Text, doc.Pages)
	log.Debug("segmented", zap.Int("spans", len(spans)))

	built := p.builder.Build(spans)
	forest := resolve.Resolve(built.Nodes)
	log.Debug("resolved",
		zap.Int("nodes", len(forest.Nodes)),
		zap.Int("orphans", len(forest.Report.Orphans)),
		zap.Int("unresolved", len(forest.Report.UnresolvedReferences)),
	)

	out := p.exporter.Export(ctx, doc.ID, forest, built.Diagnostics)

	res := &Result{
		DocumentID:      doc.ID,
		Nodes:           forest.Nodes,
		Roots:           forest.Roots,
		Report:          forest.Report,
		Diagnostics:     built.Diagnostics,
		Empty:           len(forest.Nodes) == 0,
		Written:         out.Written,
		FailedArtifacts: out.Failed,
		Pruned:          out.Pruned,
	}
	if res.Empty {
		log.Info("nothing extracted", zap.Error(ErrNoHeadersFound))
	}
	return res
}

// RunRef opens ref and runs it. Input failures come back as a
// *DocumentError wrapping ErrInputUnavailable.
func (p *Pipeline) RunRef(ctx context.Context, ref string) (*Result, error) {
	return p.runAs(ctx, ref, source.DocumentID(ref))
}

// runAs opens ref and runs it under the document id id.
func (p *Pipeline) runAs(ctx context.Context, ref, id string) (*Result, error) {
	doc, err := p.opener.Open(ctx, ref)
	if err != nil {
		return nil, &DocumentError{DocID: id, Err: err}
	}
	doc.ID = id
	return p.Run(ctx, doc), nil
}

// DocumentIDs assigns a document id to every ref of a batch. Refs whose
// names collide, such as red/contract.txt and yellow/contract.md, get a
// short hash of the ref appended so their artifacts never overwrite each
// other. A ref repeated verbatim gets an empty id.
func DocumentIDs(refs []string) []string {
	ids := make([]string, len(refs))
	byID := make(map[string][]int, len(refs))
	seen := make(map[string]bool, len(refs))
	for i, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		id := source.DocumentID(ref)
		ids[i] = id
		byID[id] = append(byID[id], i)
	}

	taken := make(map[string]bool, len(byID))
	for id := range byID {
		taken[id] = true
	}
	var colliding []string
	for id, idx := range byID {
		if len(idx) > 1 {
			colliding = append(colliding, id)
		}
	}
	sort.Strings(colliding)
	for _, id := range colliding {
		delete(taken, id)
		for _, i := range byID[id] {
			ids[i] = disambiguate(id, refs[i], taken)
			taken[ids[i]] = true
		}
	}
	return ids
}

func disambiguate(id, ref string, taken map[string]bool) string {
	sum := uuid.NewSHA1(uuid.NameSpaceURL, []byte(ref)).String()
	sum = sum[:8] + sum[9:13]
	for n := 8; n <= len(sum); n++ {
		if c := id + "-" + sum[:n]; !taken[c] {
			return c
		}
	}
	return id + "-" + sum
}

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Extracted int
	Empty     int
	Failed    int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Empty + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// RunBatch processes refs with at most parallelism documents in flight and
// prints one progress line per document to w. Results are indexed like
// refs; a failed document leaves a nil entry. A document whose artifacts
// only partly exported counts as failed. Document ids come from
// DocumentIDs; a repeated ref fails with ErrDuplicateDocument.
func (p *Pipeline) RunBatch(ctx context.Context, refs []string, parallelism int, w io.Writer) (BatchSummary, []*Result) {
	if parallelism <= 0 {
		parallelism = types.DefaultParallelism
	}
	log := p.log.With(zap.String("run", uuid.NewString()))
	log.Info("batch started", zap.Int("documents", len(refs)), zap.Int("parallelism", parallelism))

	results := make([]*Result, len(refs))
	ids := DocumentIDs(refs)
	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, ref := range refs {
		g.Go(func() error {
			id, name := ids[i], ids[i]
			if name == "" {
				name = source.DocumentID(ref)
			}
			fail := func(err error) {
				report("failed  %s: %v\n", name, err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
			}
			if id == "" {
				log.Warn("document skipped", zap.String("ref", ref), zap.Error(ErrDuplicateDocument))
				fail(ErrDuplicateDocument)
				return nil
			}
			if err := ctx.Err(); err != nil {
				fail(err)
				return nil
			}

			res, err := p.runAs(ctx, ref, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Error("document failed", zap.String("ref", ref), zap.Error(err))
				fmt.Fprintf(w, "failed  %s: %v\n", id, err)
				summary.Failed++
			case len(res.FailedArtifacts) > 0:
				results[i] = res
				fmt.Fprintf(w, "failed  %s: %d of %d artifacts not written\n",
					res.DocumentID, len(res.FailedArtifacts), len(res.FailedArtifacts)+len(res.Written))
				summary.Failed++
			case res.Empty:
				results[i] = res
				fmt.Fprintf(w, "empty   %s: %v\n", res.DocumentID, ErrNoHeadersFound)
				summary.Empty++
			default:
				results[i] = res
				fmt.Fprintf(w, "extracted %s (%d nodes, %d orphans, %d unresolved references)\n",
					res.DocumentID, len(res.Nodes), len(res.Report.Orphans), len(res.Report.UnresolvedReferences))
				summary.Extracted++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("batch finished",
		zap.Int("extracted", summary.Extracted),
		zap.Int("empty", summary.Empty),
		zap.Int("failed", summary.Failed),
	)
	return summary, results
}
