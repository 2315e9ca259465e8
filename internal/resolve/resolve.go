// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve assembles clause nodes into a forest by numeric prefix
// and links cross references to node ids. Inconsistencies are reported,
// never repaired.
package resolve

import (
	"fmt"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// Forest is the resolved node graph of one document.
type Forest struct {
	// Nodes in document order.
	Nodes []*types.ClauseNode

	// Roots are the ids of parentless nodes in document order, orphans
	// included.
	Roots []string

	Report types.ResolveReport

	byID map[string]*types.ClauseNode
}

// Node returns the node with the given id.
func (f *Forest) Node(id string) (*types.ClauseNode, bool) {
	n, ok := f.byID[id]
	return n, ok
}

// partition indexes the nodes of one content kind by number.
type partition map[string]*types.ClauseNode

// Resolve sets Parent and Children on every node, rewrites RelatedClauses
// from referenced numbers to the ids of existing nodes, and collects the
// report. Nodes are mutated in place.
func Resolve(nodes []*types.ClauseNode) *Forest {
	f := &Forest{
		Nodes: nodes,
		Roots: []string{},
		Report: types.ResolveReport{
			Orphans:              []types.Orphan{},
			UnresolvedReferences: []types.UnresolvedReference{},
			NumberingIssues:      []types.NumberingIssue{},
		},
		byID: make(map[string]*types.ClauseNode, len(nodes)),
	}

	parts := make(map[types.ContentKind]partition)
	for _, n := range nodes {
		f.byID[n.ID] = n
		p, ok := parts[n.ContentKind]
		if !ok {
			p = make(partition)
			parts[n.ContentKind] = p
		}
		p[n.Number] = n
		n.Parent = ""
		n.Children = []string{}
	}

	f.link(parts)
	f.checkOrder()
	f.references(parts)
	return f
}

// link attaches each node to its longest existing numeric prefix within
// its own content kind.
func (f *Forest) link(parts map[types.ContentKind]partition) {
	for _, n := range f.Nodes {
		if want := types.LevelOf(n.Number); n.Level != want {
			f.issue(n.ID, types.IssueLevelMismatch,
				fmt.Sprintf("level %d but number %s has %d segments", n.Level, n.Number, want))
		}

		prefixes := types.ParentNumbers(n.Number)
		var parent *types.ClauseNode
		for i, p := range prefixes {
			if cand, ok := parts[n.ContentKind][p]; ok {
				parent = cand
				if i > 0 {
					f.issue(n.ID, types.IssueSkippedLevel,
						fmt.Sprintf("attached to %s; %s is missing", cand.Number, prefixes[0]))
				}
				break
			}
		}

		if parent == nil {
			f.Roots = append(f.Roots, n.ID)
			if len(prefixes) > 0 {
				f.Report.Orphans = append(f.Report.Orphans, types.Orphan{
					ID:            n.ID,
					Number:        n.Number,
					MissingParent: prefixes[0],
				})
			}
			continue
		}
		n.Parent = parent.ID
		parent.Children = append(parent.Children, n.ID)
	}
}

// checkOrder reports siblings whose numbers do not ascend in document
// order. Roots are compared within their content kind.
func (f *Forest) checkOrder() {
	rootsByKind := make(map[types.ContentKind][]string)
	var kinds []types.ContentKind
	for _, id := range f.Roots {
		k := f.byID[id].ContentKind
		if _, ok := rootsByKind[k]; !ok {
			kinds = append(kinds, k)
		}
		rootsByKind[k] = append(rootsByKind[k], id)
	}
	for _, k := range kinds {
		f.checkSiblings(rootsByKind[k])
	}
	for _, n := range f.Nodes {
		f.checkSiblings(n.Children)
	}
}

func (f *Forest) checkSiblings(ids []string) {
	for i := 1; i < len(ids); i++ {
		prev, cur := f.byID[ids[i-1]], f.byID[ids[i]]
		if types.CompareNumbers(prev.Number, cur.Number) >= 0 {
			f.issue(cur.ID, types.IssueOutOfOrder,
				fmt.Sprintf("%s follows %s", cur.Number, prev.Number))
		}
	}
}

// references rewrites RelatedClauses to resolved ids. A number resolves
// against operative clauses first, then against the node's own content
// kind. Unmatched numbers are reported; self references are dropped.
func (f *Forest) references(parts map[types.ContentKind]partition) {
	operative := parts[types.KindGeneralConditions]
	for _, n := range f.Nodes {
		seen := make(map[string]bool)
		resolved := []string{}
		for _, raw := range n.RelatedClauses {
			num := types.CanonicalNumber(raw)
			if num == "" {
				continue
			}
			target, ok := operative[num]
			if !ok {
				target, ok = parts[n.ContentKind][num]
			}
			if !ok {
				f.Report.UnresolvedReferences = append(f.Report.UnresolvedReferences,
					types.UnresolvedReference{From: n.ID, Number: num})
				continue
			}
			if target.ID == n.ID || seen[target.ID] {
				continue
			}
			seen[target.ID] = true
			resolved = append(resolved, target.ID)
		}
		n.RelatedClauses = resolved
	}
}

func (f *Forest) issue(id string, kind types.IssueKind, detail string) {
	f.Report.NumberingIssues = append(f.Report.NumberingIssues, types.NumberingIssue{ID: id, Kind: kind, Detail: detail})
}

// ReferencedNumbers returns the clause numbers of a node's resolved
// references, in the same order as RelatedClauses.
func (f *Forest) ReferencedNumbers(n *types.ClauseNode) []string {
	out := make([]string, 0, len(n.RelatedClauses))
	for _, id := range n.RelatedClauses {
		if t, ok := f.byID[id]; ok {
			out = append(out, t.Number)
		}
	}
	return out
}

// Subtree returns id and all of its descendants, depth first in child
// order.
func (f *Forest) Subtree(id string) []*types.ClauseNode {
	n, ok := f.byID[id]
	if !ok {
		return nil
	}
	out := []*types.ClauseNode{n}
	for _, c := range n.Children {
		out = append(out, f.Subtree(c)...)
	}
	return out
}
