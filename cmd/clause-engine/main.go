// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the clause-engine CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/logging"
	"github.com/pdiddy/clause-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	logger = zap.NewNop()
)

// rootCmd is the base command for the clause-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "clause-engine",
	Short: "Extract structured clauses from FIDIC contract documents",
	Long: `clause-engine turns the raw text of a FIDIC conditions-of-contract document
into a tree of clause nodes: numbered clauses and sub-clauses with their
obligations, parties, cross references, keywords and classification.

Each document yields one JSON artifact per top-level clause plus an index,
written to a directory, an S3 bucket, or a SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logConfig(viper.GetViper()), os.Stderr)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./clause-engine.yaml or ~/.config/clause-engine/config.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of credential files")
	pf.String("catalog", "", "pattern catalog YAML file (default: embedded catalog)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log encoding: console or json")

	mustBind(keyCatalog, pf.Lookup("catalog"))
	mustBind(keyLogLevel, pf.Lookup("log-level"))
	mustBind(keyLogFormat, pf.Lookup("log-format"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clause-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "clause-engine"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("CLAUSE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
