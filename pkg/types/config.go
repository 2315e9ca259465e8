// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Default extraction limits. The full-text cap has no deeper rationale than
// keeping artifacts small; it is a tunable, not a contract.
const (
	DefaultFullTextCap       = 5000
	DefaultSummaryMaxLen     = 300
	DefaultDescriptionMaxLen = 200
	DefaultKeywordLimit      = 15
	DefaultParallelism       = 4
)

// HTTPConfig holds settings for fetching documents over HTTP.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on 429 and 5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds the tunables of the node builder.
type ExtractionConfig struct {
	// FullTextCap is the maximum fullText length in characters (default 5000).
	FullTextCap int `json:"full_text_cap" yaml:"full_text_cap"`

	// SummaryMaxLen is the maximum summary length in characters (default 300).
	SummaryMaxLen int `json:"summary_max_len" yaml:"summary_max_len"`

	// DescriptionMaxLen caps each obligation description (default 200).
	DescriptionMaxLen int `json:"description_max_len" yaml:"description_max_len"`

	// KeywordLimit is the number of keywords kept per node (default 15).
	KeywordLimit int `json:"keyword_limit" yaml:"keyword_limit"`

	// CatalogPath points at a pattern catalog YAML file. Empty uses the
	// embedded catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}

// WithDefaults returns a copy with zero or negative limits replaced by the
// package defaults.
func (c ExtractionConfig) WithDefaults() ExtractionConfig {
	if c.FullTextCap <= 0 {
		c.FullTextCap = DefaultFullTextCap
	}
	if c.SummaryMaxLen <= 0 {
		c.SummaryMaxLen = DefaultSummaryMaxLen
	}
	if c.DescriptionMaxLen <= 0 {
		c.DescriptionMaxLen = DefaultDescriptionMaxLen
	}
	if c.KeywordLimit <= 0 {
		c.KeywordLimit = DefaultKeywordLimit
	}
	return c
}

// SinkType identifies the export destination.
type SinkType string

const (
	SinkDir    SinkType = "dir"
	SinkS3     SinkType = "s3"
	SinkSQLite SinkType = "sqlite"
)

// SinkConfig holds settings for the export sink.
type SinkConfig struct {
	// Type selects the sink: dir, s3, or sqlite.
	Type SinkType `json:"type" yaml:"type"`

	// OutputDir is the base directory for the dir sink (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// S3Bucket is the target bucket for the s3 sink.
	S3Bucket string `json:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty"`

	// S3Region is the bucket region (default "us-east-1").
	S3Region string `json:"s3_region,omitempty" yaml:"s3_region,omitempty"`

	// S3Prefix is prepended to every object key.
	S3Prefix string `json:"s3_prefix,omitempty" yaml:"s3_prefix,omitempty"`

	// AWSAccessKey and AWSSecretKey are optional static credentials. When
	// empty the default AWS credential chain is used.
	AWSAccessKey string `json:"-" yaml:"-"`
	AWSSecretKey string `json:"-" yaml:"-"`

	// SQLitePath is the database file for the sqlite sink.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all settings for an extraction run.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Sink       SinkConfig       `json:"sink" yaml:"sink"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Log        LogConfig        `json:"log" yaml:"log"`

	// Parallelism bounds how many documents are processed at once.
	Parallelism int `json:"parallelism" yaml:"parallelism"`
}
