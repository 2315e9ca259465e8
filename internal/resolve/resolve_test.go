// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-engine/pkg/types"
)

func node(kind types.ContentKind, number string, refs ...string) *types.ClauseNode {
	if refs == nil {
		refs = []string{}
	}
	return &types.ClauseNode{
		ID:             types.NodeID(kind, number),
		Number:         number,
		Level:          types.LevelOf(number),
		ContentKind:    kind,
		RelatedClauses: refs,
		Children:       []string{},
	}
}

func gc(number string, refs ...string) *types.ClauseNode {
	return node(types.KindGeneralConditions, number, refs...)
}

func TestResolveHierarchy(t *testing.T) {
	nodes := []*types.ClauseNode{gc("1"), gc("1.1"), gc("1.2"), gc("1.2.1"), gc("2"), gc("2.1")}
	f := Resolve(nodes)

	assert.Equal(t, []string{"1", "2"}, f.Roots)
	assert.Equal(t, []string{"1.1", "1.2"}, nodes[0].Children)
	assert.Equal(t, []string{"1.2.1"}, nodes[2].Children)
	assert.Equal(t, "1.2", nodes[3].Parent)
	assert.Equal(t, "", nodes[0].Parent)
	assert.Empty(t, f.Report.Orphans)
	assert.Empty(t, f.Report.NumberingIssues)

	var ids []string
	for _, n := range f.Subtree("1") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"1", "1.1", "1.2", "1.2.1"}, ids)
}

// Every multi-level node either has its parent or is reported as an orphan.
func TestResolveOrphans(t *testing.T) {
	nodes := []*types.ClauseNode{gc("3.1"), gc("3.2"), gc("4"), gc("4.1")}
	f := Resolve(nodes)

	assert.Equal(t, []string{"3.1", "3.2", "4"}, f.Roots)
	require.Len(t, f.Report.Orphans, 2)
	assert.Equal(t, types.Orphan{ID: "3.1", Number: "3.1", MissingParent: "3"}, f.Report.Orphans[0])
	assert.Equal(t, "3", f.Report.Orphans[1].MissingParent)

	for _, n := range nodes {
		if n.Level < 2 {
			continue
		}
		_, hasParent := f.Node(n.Parent)
		orphaned := false
		for _, o := range f.Report.Orphans {
			if o.ID == n.ID {
				orphaned = true
			}
		}
		assert.True(t, hasParent != orphaned, "node %s", n.ID)
	}
}

func TestResolveSkippedLevel(t *testing.T) {
	nodes := []*types.ClauseNode{gc("4"), gc("4.1.2")}
	f := Resolve(nodes)

	assert.Equal(t, "4", nodes[1].Parent)
	assert.Empty(t, f.Report.Orphans)
	require.Len(t, f.Report.NumberingIssues, 1)
	assert.Equal(t, types.IssueSkippedLevel, f.Report.NumberingIssues[0].Kind)
	assert.Equal(t, "4.1.2", f.Report.NumberingIssues[0].ID)
}

func TestResolveLevelMismatchReportedNotFixed(t *testing.T) {
	n := gc("4.1")
	n.Level = 3
	f := Resolve([]*types.ClauseNode{gc("4"), n})

	assert.Equal(t, 3, n.Level)
	require.Len(t, f.Report.NumberingIssues, 1)
	assert.Equal(t, types.IssueLevelMismatch, f.Report.NumberingIssues[0].Kind)
}

func TestResolveOutOfOrder(t *testing.T) {
	nodes := []*types.ClauseNode{gc("2"), gc("1"), gc("2.2"), gc("2.1")}
	f := Resolve(nodes)

	var got []string
	for _, is := range f.Report.NumberingIssues {
		require.Equal(t, types.IssueOutOfOrder, is.Kind)
		got = append(got, is.ID)
	}
	assert.Equal(t, []string{"1", "2.1"}, got)
	assert.Equal(t, []string{"2.2", "2.1"}, nodes[0].Children, "children keep document order")
}

func TestResolveReferences(t *testing.T) {
	nodes := []*types.ClauseNode{
		gc("1", "2", "99.9", "04.1"),
		gc("2", "1"),
		gc("4"),
		gc("4.1", "4.1"),
	}
	f := Resolve(nodes)

	assert.Equal(t, []string{"2", "4.1"}, nodes[0].RelatedClauses)
	assert.Equal(t, []string{"1"}, nodes[1].RelatedClauses)
	assert.Empty(t, nodes[3].RelatedClauses, "self reference dropped")

	require.Len(t, f.Report.UnresolvedReferences, 1)
	assert.Equal(t, types.UnresolvedReference{From: "1", Number: "99.9"}, f.Report.UnresolvedReferences[0])
	for _, n := range nodes {
		assert.NotContains(t, n.RelatedClauses, "99.9")
	}
	assert.Equal(t, []string{"2", "4.1"}, f.ReferencedNumbers(nodes[0]))
}

// Round trip: every resolved reference points at a node in the forest.
func TestResolvedReferencesExist(t *testing.T) {
	nodes := []*types.ClauseNode{gc("1", "2", "3", "7.7"), gc("2", "1", "8"), gc("3")}
	f := Resolve(nodes)
	for _, n := range nodes {
		for _, id := range n.RelatedClauses {
			_, ok := f.Node(id)
			assert.True(t, ok, "%s -> %s", n.ID, id)
		}
	}
	assert.Len(t, f.Report.UnresolvedReferences, 2)
}

func TestResolvePartitions(t *testing.T) {
	nodes := []*types.ClauseNode{
		gc("4"),
		gc("4.1"),
		node(types.KindGuidance, "4.1", "4.1", "20.1"),
		node(types.KindGuidance, "20.1"),
	}
	f := Resolve(nodes)

	assert.Equal(t, "4", nodes[1].Parent)
	assert.Equal(t, []string{"4.1"}, nodes[0].Children, "guidance never joins the operative tree")
	assert.Equal(t, []string{"4", "guidance:4.1", "guidance:20.1"}, f.Roots)

	// Guidance cites operative clauses first, then guidance entries.
	assert.Equal(t, []string{"4.1", "guidance:20.1"}, nodes[2].RelatedClauses)

	require.Len(t, f.Report.Orphans, 2)
	assert.Equal(t, "guidance:4.1", f.Report.Orphans[0].ID)
	assert.Empty(t, f.Report.NumberingIssues, "roots are ordered per content kind")
}

func TestResolveIsRepeatable(t *testing.T) {
	nodes := []*types.ClauseNode{gc("1"), gc("1.1", "1")}
	first := Resolve(nodes)
	second := Resolve(nodes)
	assert.Equal(t, first.Roots, second.Roots)
	assert.Equal(t, []string{"1.1"}, nodes[0].Children)
	assert.Equal(t, []string{"1"}, nodes[1].RelatedClauses)
}
