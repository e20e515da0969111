// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-engine CLI. It finds
// the works citing a list of DOIs read from a CSV file or discovered from
// a Crossref depositor report, and writes them to a result file.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/secrets"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// appConfig is the merged configuration (defaults, file, env, secrets)
// loaded before every command runs.
var appConfig = types.DefaultConfig()

// logger is the diagnostic logger built from appConfig.Log.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "citation-engine",
	Short: "Find the works that cite a list of DOIs",
	Long: `citation-engine collects, for each DOI in a list, the publications citing
it. Citing works come from OpenAlex and OpenCitations; missing titles,
authors, and years are completed from Crossref. The DOI list is read from a
CSV file or discovered from a Crossref depositor report (publisher codes
such as J297249).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		zap.ReplaceGlobals(l)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		if cfg.Sources.Email == "" {
			cfg.Sources.Email = s.ContactEmail()
		}
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citation-engine.yaml or ~/.config/citation-engine/citation-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-engine"))
		}
	}

	viper.SetEnvPrefix("CITATION_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		os.Stderr.WriteString("Using config file: " + viper.ConfigFileUsed() + "\n")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
