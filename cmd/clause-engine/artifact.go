// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-engine/internal/export"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact <document>/<name>",
	Short: "Print an artifact stored in the SQLite sink",
	Long: `Artifact reads one exported artifact back from the SQLite database
written by "extract --sink sqlite", for example:

  clause-engine artifact red-book/index.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("sqlite-path")
		if path == "" {
			path = viper.GetString(keySQLitePath)
		}
		db, err := export.NewSQLiteSink(path)
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := db.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	},
}

func init() {
	artifactCmd.Flags().String("sqlite-path", "", "database file (default output/clauses.db)")
	rootCmd.AddCommand(artifactCmd)
}
