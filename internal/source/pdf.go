// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// parsePDF extracts plain text page by page. Each page gets a marker; a
// page whose text cannot be read contributes no lines.
func parsePDF(data []byte) (text string, pages []types.PageMarker, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("opening pdf: %w", err)
	}

	var b pageBuilder
	for i := 1; i <= reader.NumPage(); i++ {
		b.mark(i)
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
			b.line(line)
		}
	}
	text, pages = b.result()
	return text, pages, nil
}
