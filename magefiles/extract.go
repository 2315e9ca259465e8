//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// documentExts are the formats the extract command reads.
var documentExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".pdf":      true,
	".docx":     true,
}

// Extract builds the CLI and runs it over every document in documents/.
func Extract() error {
	mg.Deps(Build)

	docs, err := listDocuments("documents")
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("[extract] No documents in documents/.")
		return nil
	}
	return sh.RunV(binPath, append([]string{"extract"}, docs...)...)
}

// CatalogCheck validates the embedded pattern catalog.
func CatalogCheck() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "catalog", "check", filepath.Join("internal", "catalog", "catalog.yaml"))
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() || !documentExts[filepath.Ext(e.Name())] {
			continue
		}
		docs = append(docs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}
