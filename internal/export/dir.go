// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultOutputDir = "output"

// DirSink writes artifacts as files under a base directory.
type DirSink struct {
	base string
}

// NewDirSink creates base if needed.
func NewDirSink(base string) (*DirSink, error) {
	if base == "" {
		base = defaultOutputDir
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", base, err)
	}
	return &DirSink{base: base}, nil
}

// Put writes data to a temporary file in the target directory and renames
// it into place, so a partially written artifact is never visible.
func (d *DirSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("artifact name %q escapes the output directory", name)
	}
	path := filepath.Join(d.base, clean)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}
	return nil
}

// Prune removes JSON files in the document directory that are not in keep.
func (d *DirSink) Prune(ctx context.Context, doc string, keep []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(d.base, filepath.FromSlash(doc)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", doc, err)
	}
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}

	var removed []string
	for _, e := range entries {
		name := doc + "/" + e.Name()
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || kept[name] {
			continue
		}
		if err := os.Remove(filepath.Join(d.base, filepath.FromSlash(name))); err != nil {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Close is a no-op.
func (d *DirSink) Close() error { return nil }
