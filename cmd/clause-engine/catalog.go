// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate pattern catalogs",
	Long: `Catalog works with the rule file that drives header recognition, party
and obligation detection, reference extraction and classification. Rules
are applied in file order; the first matching rule wins.`,
}

// --- show subcommand ---

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective catalog as YAML",
	Long: `Show prints the catalog that extract would use: the file given by
--catalog (or extraction.catalog_path), otherwise the embedded default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showCatalog(os.Stdout, viper.GetString(keyCatalog))
	},
}

func showCatalog(w io.Writer, path string) error {
	if path == "" {
		_, err := w.Write(catalog.DefaultYAML())
		return err
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}

// --- check subcommand ---

var catalogCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a catalog file",
	Long: `Check compiles every rule in the file and reports the first invalid
pattern, unknown content kind, category, importance or verb.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		describeCatalog(os.Stdout, args[0], cat)
		return nil
	},
}

func describeCatalog(w io.Writer, name string, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%s: ok\n", name)
	fmt.Fprintf(w, "  sections:            %d\n", len(cat.Sections))
	fmt.Fprintf(w, "  clause headers:      %d\n", len(cat.ClauseHeaders))
	fmt.Fprintf(w, "  sub-clause headers:  %d\n", len(cat.SubClauseHeaders))
	fmt.Fprintf(w, "  parties:             %d\n", len(cat.Parties))
	fmt.Fprintf(w, "  obligation verbs:    %d\n", len(cat.ObligationVerbs))
	fmt.Fprintf(w, "  conditions:          %d\n", len(cat.Conditions))
	fmt.Fprintf(w, "  cross references:    %d\n", len(cat.CrossReferences))
	fmt.Fprintf(w, "  external references: %d\n", len(cat.ExternalReferences))
	fmt.Fprintf(w, "  stopwords:           %d\n", len(cat.Stopwords))
	fmt.Fprintf(w, "  categories:          %d\n", len(cat.Categories))
	fmt.Fprintf(w, "  importance rules:    %d\n", len(cat.Importance))
}

func init() {
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
	rootCmd.AddCommand(catalogCmd)
}
