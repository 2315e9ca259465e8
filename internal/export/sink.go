// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// ErrSinkUnavailable means the sink could not be opened at all. It aborts
// the run, unlike a failed write of a single artifact.
var ErrSinkUnavailable = errors.New("sink unavailable")

// Sink stores named artifacts. Put must be atomic per artifact: a reader
// sees either the complete previous content or the complete new content.
// Names use forward slashes.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Close() error
}

// Pruner is implemented by sinks that can drop artifacts of a document
// left over from an earlier run. Prune removes every artifact under
// doc + "/" whose name is not in keep.
type Pruner interface {
	Prune(ctx context.Context, doc string, keep []string) ([]string, error)
}

// Open builds the sink selected by cfg.Type. The dir sink is the default.
func Open(ctx context.Context, cfg types.SinkConfig) (Sink, error) {
	var (
		s   Sink
		err error
	)
	switch cfg.Type {
	case types.SinkDir, "":
		s, err = NewDirSink(cfg.OutputDir)
	case types.SinkS3:
		s, err = NewS3Sink(ctx, cfg)
	case types.SinkSQLite:
		s, err = NewSQLiteSink(cfg.SQLitePath)
	default:
		err = fmt.Errorf("unknown sink type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	return s, nil
}
