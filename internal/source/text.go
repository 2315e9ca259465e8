// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/clause-engine/pkg/types"
)

var (
	// pageLineRe matches a line that only announces a page: "PAGE 3" from
	// the PDF text dump, "# Page 3" from the Markdown converter, or an
	// HTML comment "<!-- page 3 -->".
	pageLineRe = regexp.MustCompile(`^(?:PAGE\s+(\d+)|#{1,6}\s*Page\s+(\d+)|<!--\s*[Pp]age\s+(\d+)\s*-->)$`)

	// ruleLineRe matches separator lines that frame page markers.
	ruleLineRe = regexp.MustCompile(`^(?:={10,}|-{3})$`)
)

// pageNumber returns the page announced by a trimmed line.
func pageNumber(line string) (int, bool) {
	m := pageLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// parseText strips page marker and separator lines, recording a marker
// at the offset of the text that follows. Form feeds also start a page.
func parseText(data []byte) (string, []types.PageMarker) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var b pageBuilder

	chunks := strings.Split(text, "\f")
	for i, chunk := range chunks {
		if len(chunks) > 1 {
			b.mark(i + 1)
		}
		lines := strings.Split(chunk, "\n")
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = lines[:n-1]
		}
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if page, ok := pageNumber(trimmed); ok {
				b.mark(page)
				continue
			}
			if ruleLineRe.MatchString(trimmed) {
				continue
			}
			b.line(line)
		}
	}
	return b.result()
}
