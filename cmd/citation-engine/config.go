// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// setDefaults registers every config key so that environment variables
// reach viper.Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.max_attempts", d.HTTP.MaxAttempts)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("sources.openalex_url", d.Sources.OpenAlexURL)
	v.SetDefault("sources.opencitations_url", d.Sources.OpenCitationsURL)
	v.SetDefault("sources.crossref_url", d.Sources.CrossrefURL)
	v.SetDefault("sources.depositor_report_url", d.Sources.DepositorReportURL)
	v.SetDefault("sources.email", d.Sources.Email)
	v.SetDefault("sources.enable_openalex", d.Sources.EnableOpenAlex)
	v.SetDefault("sources.enable_opencitations", d.Sources.EnableOpenCitations)
	v.SetDefault("sources.enable_enrichment", d.Sources.EnableEnrichment)

	v.SetDefault("pipeline.request_delay", d.Pipeline.RequestDelay)
	v.SetDefault("pipeline.page_size", d.Pipeline.PageSize)
	v.SetDefault("pipeline.max_pages", d.Pipeline.MaxPages)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", string(d.Output.Format))
	v.SetDefault("output.summary_limit", d.Output.SummaryLimit)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// loadConfig unmarshals viper's merged view onto the defaults.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. Logs go to stderr so they never
// mix with progress output or discovered DOIs on stdout.
func newLogger(cfg types.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "warn"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}
