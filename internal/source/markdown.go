// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/clause-engine/pkg/types"
)

var pageHeadingRe = regexp.MustCompile(`^Page\s+(\d+)$`)

// parseMarkdown keeps the source lines of every leaf block, so headings
// like "## Clause 4 The Contractor" become plain "Clause 4 The Contractor"
// lines. "Page N" headings and page comments become markers. A blank line
// follows each block.
func parseMarkdown(data []byte) (string, []types.PageMarker) {
	src := []byte(strings.ReplaceAll(string(data), "\r\n", "\n"))
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b pageBuilder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			line := strings.TrimSpace(blockText(node, src))
			if m := pageHeadingRe.FindStringSubmatch(line); m != nil {
				if p, err := strconv.Atoi(m[1]); err == nil {
					b.mark(p)
				}
				return ast.WalkSkipChildren, nil
			}
			b.line(line)
			b.blank()
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			for _, line := range strings.Split(blockText(node, src), "\n") {
				if p, ok := pageNumber(strings.TrimSpace(line)); ok {
					b.mark(p)
				}
			}
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}

		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			for _, line := range strings.Split(strings.TrimRight(blockText(n, src), "\n"), "\n") {
				if p, ok := pageNumber(strings.TrimSpace(line)); ok {
					b.mark(p)
					continue
				}
				b.line(line)
			}
			b.blank()
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.result()
}

// blockText joins the raw source lines of a block node.
func blockText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		v := string(seg.Value(src))
		sb.WriteString(v)
		if !strings.HasSuffix(v, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
