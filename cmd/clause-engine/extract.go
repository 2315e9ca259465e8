// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-engine/internal/export"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/internal/secrets"
	"github.com/pdiddy/clause-engine/internal/source"
)

var extractCmd = &cobra.Command{
	Use:   "extract [documents...]",
	Short: "Extract clause trees from FIDIC documents",
	Long: `Extract reads each document (a .txt, .md, .pdf or .docx file, or an
http(s) URL), segments it into clauses and sub-clauses, builds and links
the clause nodes, and writes one JSON artifact per top-level clause plus an
index. Documents are processed in parallel; a failed document does not
stop the others.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("sink", "", "export sink: dir, s3, or sqlite (default dir)")
	f.String("output-dir", "", "base directory for the dir sink (default output)")
	f.String("s3-bucket", "", "bucket for the s3 sink")
	f.String("s3-region", "", "region of the s3 bucket (default us-east-1)")
	f.String("s3-prefix", "", "key prefix for the s3 sink")
	f.String("sqlite-path", "", "database file for the sqlite sink (default output/clauses.db)")
	f.Int("parallelism", 0, "documents processed at once (default 4)")
	f.Int("full-text-cap", 0, "maximum fullText length in characters (default 5000)")
	f.Int("summary-max-len", 0, "maximum summary length in characters (default 300)")
	f.Duration("timeout", 0, "HTTP request timeout for URL documents (default 60s)")

	mustBind(keySinkType, f.Lookup("sink"))
	mustBind(keyOutputDir, f.Lookup("output-dir"))
	mustBind(keyS3Bucket, f.Lookup("s3-bucket"))
	mustBind(keyS3Region, f.Lookup("s3-region"))
	mustBind(keyS3Prefix, f.Lookup("s3-prefix"))
	mustBind(keySQLitePath, f.Lookup("sqlite-path"))
	mustBind(keyParallelism, f.Lookup("parallelism"))
	mustBind(keyFullTextCap, f.Lookup("full-text-cap"))
	mustBind(keySummaryMaxLen, f.Lookup("summary-max-len"))
	mustBind(keyHTTPTimeout, f.Lookup("timeout"))

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more document paths or URLs")
	}
	ctx := cmd.Context()

	cfg := pipelineConfig(viper.GetViper())
	secrets.ApplySink(&cfg.Sink, loadedSecrets)

	cat, err := loadCatalog(cfg.Extraction.CatalogPath)
	if err != nil {
		return err
	}

	sink, err := export.Open(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer sink.Close()

	p := pipeline.New(cat, cfg.Extraction, source.New(cfg.HTTP), sink, logger)
	summary, _ := p.RunBatch(ctx, args, cfg.Parallelism, os.Stdout)

	fmt.Fprintf(os.Stdout, "\n%d document(s): %d extracted, %d empty, %d failed\n",
		summary.Total(), summary.Extracted, summary.Empty, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}
