// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-engine/internal/catalog"
	"github.com/pdiddy/clause-engine/internal/export"
	"github.com/pdiddy/clause-engine/internal/source"
	"github.com/pdiddy/clause-engine/pkg/types"
)

const redBook = `PAGE 1
Clause 1 General Provisions
The Contractor shall submit a Performance Security within 28 days.

Sub-Clause 1.1 Definitions
The Engineer may issue instructions in accordance with Sub-Clause 4.1.

PAGE 2
Clause 4 The Contractor
The Contractor shall design and execute the Works.

Sub-Clause 4.1 Contractor's General Obligations
The Contractor shall comply with Sub-Clause 99.9 and FIDIC Procurement Procedures Guide.
`

type memSink struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemSink() *memSink { return &memSink{data: map[string][]byte{}} }

func (m *memSink) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memSink) Close() error { return nil }

type mapOpener map[string]string

func (o mapOpener) Open(_ context.Context, ref string) (*source.Document, error) {
	text, ok := o[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such file", source.ErrInputUnavailable, ref)
	}
	parsed, pages, err := source.Parse(".txt", []byte(text))
	if err != nil {
		return nil, err
	}
	return &source.Document{ID: source.DocumentID(ref), Ref: ref, Text: parsed, Pages: pages}, nil
}

func newPipeline(opener Opener, sink export.Sink) *Pipeline {
	return New(catalog.Default(), types.ExtractionConfig{}, opener, sink, nil)
}

func TestRunRedBook(t *testing.T) {
	sink := newMemSink()
	p := newPipeline(mapOpener{"red-book.txt": redBook}, sink)

	res, err := p.RunRef(context.Background(), "red-book.txt")
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.Equal(t, "red-book", res.DocumentID)
	assert.False(t, res.Empty)
	assert.Equal(t, []string{"1", "4"}, res.Roots)
	require.Len(t, res.Nodes, 4)

	byID := map[string]*types.ClauseNode{}
	for _, n := range res.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, "1", byID["1.1"].Parent)
	assert.Equal(t, []string{"4.1"}, byID["4"].Children)
	assert.Equal(t, []string{"4.1"}, byID["1.1"].RelatedClauses)
	assert.Equal(t, 1, byID["1"].Page)
	assert.Equal(t, 2, byID["4.1"].Page)

	// Clause 4 spans its sub-clause, so both cite the missing 99.9.
	assert.Equal(t, []types.UnresolvedReference{
		{From: "4", Number: "99.9"},
		{From: "4.1", Number: "99.9"},
	}, res.Report.UnresolvedReferences)
	assert.Empty(t, res.Report.Orphans)
	assert.Empty(t, res.FailedArtifacts)

	assert.Contains(t, sink.data, "red-book/clause-01-general-provisions.json")
	assert.Contains(t, sink.data, "red-book/clause-04-the-contractor.json")
	assert.Contains(t, sink.data, "red-book/index.json")
	assert.Len(t, res.Written, 3)
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	sink, err := export.NewDirSink(dir)
	require.NoError(t, err)
	p := newPipeline(mapOpener{"red-book.txt": redBook}, sink)

	read := func() map[string][]byte {
		out := map[string][]byte{}
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(path)
			out[path] = data
			return err
		})
		require.NoError(t, err)
		return out
	}

	_, err = p.RunRef(context.Background(), "red-book.txt")
	require.NoError(t, err)
	first := read()
	_, err = p.RunRef(context.Background(), "red-book.txt")
	require.NoError(t, err)
	second := read()

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRunNoHeaders(t *testing.T) {
	sink := newMemSink()
	p := newPipeline(mapOpener{"notes.txt": "Just some prose.\nNothing numbered here.\n"}, sink)

	res, err := p.RunRef(context.Background(), "notes.txt")
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.ErrorIs(t, res.Err(), ErrNoHeadersFound)
	assert.Empty(t, res.Nodes)
	assert.Equal(t, []string{"notes/index.json"}, res.Written)
	assert.Contains(t, string(sink.data["notes/index.json"]), `"status": "empty"`)
}

func TestRunInputUnavailable(t *testing.T) {
	p := newPipeline(mapOpener{}, newMemSink())

	res, err := p.RunRef(context.Background(), "missing.pdf")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInputUnavailable)

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "missing", docErr.DocID)
}

func TestRunSinkFailure(t *testing.T) {
	sink := newMemSink()
	sink.err = errors.New("disk full")
	p := newPipeline(mapOpener{"red-book.txt": redBook}, sink)

	res, err := p.RunRef(context.Background(), "red-book.txt")
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 4)
	assert.Empty(t, res.Written)
	assert.Len(t, res.FailedArtifacts, 3)
}

func TestRunBatch(t *testing.T) {
	opener := mapOpener{
		"red-book.txt":    redBook,
		"yellow-book.txt": strings.ReplaceAll(redBook, "PAGE", "Page"),
		"blank.txt":       "nothing to see\n",
	}
	p := newPipeline(opener, newMemSink())
	refs := []string{"red-book.txt", "blank.txt", "gone.txt", "yellow-book.txt"}

	var out bytes.Buffer
	summary, results := p.RunBatch(context.Background(), refs, 2, &out)

	assert.Equal(t, BatchSummary{Extracted: 2, Empty: 1, Failed: 1}, summary)
	assert.Equal(t, 4, summary.Total())
	assert.True(t, summary.HasFailures())

	require.Len(t, results, 4)
	assert.Equal(t, "red-book", results[0].DocumentID)
	assert.True(t, results[1].Empty)
	assert.Nil(t, results[2])
	assert.Equal(t, "yellow-book", results[3].DocumentID)

	log := out.String()
	assert.Contains(t, log, "extracted red-book (4 nodes")
	assert.Contains(t, log, "empty   blank:")
	assert.Contains(t, log, "failed  gone:")
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPipeline(mapOpener{"red-book.txt": redBook}, newMemSink())
	var out bytes.Buffer
	summary, _ := p.RunBatch(ctx, []string{"red-book.txt"}, 0, &out)

	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, out.String(), "context canceled")
}

func TestRunPrunesStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	sink, err := export.NewDirSink(dir)
	require.NoError(t, err)
	shorter := redBook[:strings.Index(redBook, "PAGE 2")]
	p := newPipeline(mapOpener{"v1/red-book.txt": redBook, "v2/red-book.txt": shorter}, sink)

	_, err = p.RunRef(context.Background(), "v1/red-book.txt")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "red-book", "clause-04-the-contractor.json"))

	res, err := p.RunRef(context.Background(), "v2/red-book.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"red-book/clause-04-the-contractor.json"}, res.Pruned)
	assert.NoFileExists(t, filepath.Join(dir, "red-book", "clause-04-the-contractor.json"))
	assert.FileExists(t, filepath.Join(dir, "red-book", "clause-01-general-provisions.json"))
	assert.FileExists(t, filepath.Join(dir, "red-book", "index.json"))
}

func TestDocumentIDs(t *testing.T) {
	t.Run("distinct names keep their slug", func(t *testing.T) {
		assert.Equal(t, []string{"red-book", "yellow-book"}, DocumentIDs([]string{"a/red-book.txt", "b/yellow-book.pdf"}))
	})

	t.Run("repeated ref gets no id", func(t *testing.T) {
		assert.Equal(t, []string{"red-book", ""}, DocumentIDs([]string{"red-book.txt", "red-book.txt"}))
	})

	t.Run("colliding names get distinct suffixes", func(t *testing.T) {
		refs := []string{"red/contract.txt", "yellow/contract.md", "other.txt"}
		ids := DocumentIDs(refs)
		require.Len(t, ids, 3)
		assert.Regexp(t, `^contract-[0-9a-f]{8}$`, ids[0])
		assert.Regexp(t, `^contract-[0-9a-f]{8}$`, ids[1])
		assert.NotEqual(t, ids[0], ids[1])
		assert.Equal(t, "other", ids[2])
		assert.Equal(t, ids, DocumentIDs(refs), "ids are stable across runs")
	})
}

func TestRunBatchCollidingNames(t *testing.T) {
	opener := mapOpener{
		"red/contract.txt":   redBook,
		"yellow/contract.md": strings.ReplaceAll(redBook, "Clause 4 The Contractor", "Clause 4 The Design-Builder"),
	}
	sink := newMemSink()
	p := newPipeline(opener, sink)
	refs := []string{"red/contract.txt", "yellow/contract.md", "red/contract.txt"}

	var out bytes.Buffer
	summary, results := p.RunBatch(context.Background(), refs, 2, &out)

	assert.Equal(t, BatchSummary{Extracted: 2, Failed: 1}, summary)
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Nil(t, results[2])
	assert.NotEqual(t, results[0].DocumentID, results[1].DocumentID)

	for _, res := range results[:2] {
		assert.True(t, strings.HasPrefix(res.DocumentID, "contract-"), res.DocumentID)
		assert.Contains(t, sink.data, res.DocumentID+"/index.json")
	}
	assert.Contains(t, sink.data, results[0].DocumentID+"/clause-04-the-contractor.json")
	assert.Contains(t, sink.data, results[1].DocumentID+"/clause-04-the-design-builder.json")
	assert.Contains(t, out.String(), "failed  contract: "+ErrDuplicateDocument.Error())
}
