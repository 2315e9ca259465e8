// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-engine/internal/catalog"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// Configuration keys. Environment variables use the CLAUSE_ENGINE_ prefix
// with dots replaced by underscores, e.g. CLAUSE_ENGINE_SINK_TYPE.
const (
	keyCatalog           = "extraction.catalog_path"
	keyFullTextCap       = "extraction.full_text_cap"
	keySummaryMaxLen     = "extraction.summary_max_len"
	keyDescriptionMaxLen = "extraction.description_max_len"
	keyKeywordLimit      = "extraction.keyword_limit"

	keySinkType   = "sink.type"
	keyOutputDir  = "sink.output_dir"
	keyS3Bucket   = "sink.s3_bucket"
	keyS3Region   = "sink.s3_region"
	keyS3Prefix   = "sink.s3_prefix"
	keySQLitePath = "sink.sqlite_path"

	keyHTTPTimeout    = "http.timeout"
	keyHTTPUserAgent  = "http.user_agent"
	keyHTTPMaxRetries = "http.max_retries"

	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"

	keyParallelism = "parallelism"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyFullTextCap, types.DefaultFullTextCap)
	v.SetDefault(keySummaryMaxLen, types.DefaultSummaryMaxLen)
	v.SetDefault(keyDescriptionMaxLen, types.DefaultDescriptionMaxLen)
	v.SetDefault(keyKeywordLimit, types.DefaultKeywordLimit)
	v.SetDefault(keySinkType, string(types.SinkDir))
	v.SetDefault(keyOutputDir, "output")
	v.SetDefault(keyS3Region, "us-east-1")
	v.SetDefault(keySQLitePath, "output/clauses.db")
	v.SetDefault(keyHTTPTimeout, "60s")
	v.SetDefault(keyHTTPUserAgent, "clause-engine/1.0")
	v.SetDefault(keyHTTPMaxRetries, 3)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")
	v.SetDefault(keyParallelism, types.DefaultParallelism)
}

// pipelineConfig reads the full run configuration from v.
func pipelineConfig(v *viper.Viper) types.PipelineConfig {
	return types.PipelineConfig{
		Extraction: types.ExtractionConfig{
			FullTextCap:       v.GetInt(keyFullTextCap),
			SummaryMaxLen:     v.GetInt(keySummaryMaxLen),
			DescriptionMaxLen: v.GetInt(keyDescriptionMaxLen),
			KeywordLimit:      v.GetInt(keyKeywordLimit),
			CatalogPath:       v.GetString(keyCatalog),
		},
		Sink: types.SinkConfig{
			Type:       types.SinkType(v.GetString(keySinkType)),
			OutputDir:  v.GetString(keyOutputDir),
			S3Bucket:   v.GetString(keyS3Bucket),
			S3Region:   v.GetString(keyS3Region),
			S3Prefix:   v.GetString(keyS3Prefix),
			SQLitePath: v.GetString(keySQLitePath),
		},
		HTTP: types.HTTPConfig{
			Timeout:    v.GetDuration(keyHTTPTimeout),
			UserAgent:  v.GetString(keyHTTPUserAgent),
			MaxRetries: v.GetInt(keyHTTPMaxRetries),
		},
		Log:         logConfig(v),
		Parallelism: v.GetInt(keyParallelism),
	}
}

func logConfig(v *viper.Viper) types.LogConfig {
	return types.LogConfig{
		Level:  v.GetString(keyLogLevel),
		Format: v.GetString(keyLogFormat),
	}
}

// loadCatalog returns the embedded catalog when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func mustBind(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
