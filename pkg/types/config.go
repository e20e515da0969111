// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Default endpoints for the bibliographic sources.
const (
	DefaultOpenAlexURL        = "https://api.openalex.org"
	DefaultOpenCitationsURL   = "https://opencitations.net/index/api/v1"
	DefaultCrossrefURL        = "https://api.crossref.org/works"
	DefaultDepositorReportURL = "https://data.crossref.org/depositorreport"
)

// HTTPConfig holds shared HTTP settings used by the fetcher.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts is the attempt ceiling for one fetch (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// UserAgent is sent with every request. The contact e-mail, when known,
	// is appended as "(mailto:...)" for the polite pools.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig holds the base URLs of the bibliographic sources and the
// contact e-mail. Tests point the URLs at httptest servers.
type SourcesConfig struct {
	OpenAlexURL        string `json:"openalex_url" yaml:"openalex_url" mapstructure:"openalex_url"`
	OpenCitationsURL   string `json:"opencitations_url" yaml:"opencitations_url" mapstructure:"opencitations_url"`
	CrossrefURL        string `json:"crossref_url" yaml:"crossref_url" mapstructure:"crossref_url"`
	DepositorReportURL string `json:"depositor_report_url" yaml:"depositor_report_url" mapstructure:"depositor_report_url"`

	// Email is the contact address for the OpenAlex and Crossref polite pools.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// EnableOpenAlex and EnableOpenCitations switch the citation adapters.
	EnableOpenAlex      bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`
	EnableOpenCitations bool `json:"enable_opencitations" yaml:"enable_opencitations" mapstructure:"enable_opencitations"`

	// EnableEnrichment switches the Crossref metadata backfill stage.
	EnableEnrichment bool `json:"enable_enrichment" yaml:"enable_enrichment" mapstructure:"enable_enrichment"`
}

// PipelineConfig holds pacing and pagination settings.
type PipelineConfig struct {
	// RequestDelay is the minimum spacing between calls to one source (default 500ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// PageSize is the OpenAlex cursor page size (default 200, the API maximum).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxPages caps OpenAlex cursor pagination (default 50).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// OutputFormat selects the export format.
type OutputFormat string

const (
	FormatCSV    OutputFormat = "csv"
	FormatJSON   OutputFormat = "json"
	FormatYAML   OutputFormat = "yaml"
	FormatSQLite OutputFormat = "sqlite"
	FormatCSL    OutputFormat = "csl"
)

// OutputConfig holds export settings.
type OutputConfig struct {
	// Dir is the directory for timestamped result files (default ".").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format selects csv, json, yaml, sqlite, or csl.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// SummaryLimit is the number of identifiers listed in the summary (default 20).
	SummaryLimit int `json:"summary_limit" yaml:"summary_limit" mapstructure:"summary_limit"`
}

// LogConfig holds diagnostic logger settings.
type LogConfig struct {
	// Level is the minimum zap level (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Development selects zap's human-readable console encoder.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all stage configurations.
type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Sources  SourcesConfig  `json:"sources" yaml:"sources" mapstructure:"sources"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
			UserAgent:   "citation-engine/0.1",
		},
		Sources: SourcesConfig{
			OpenAlexURL:         DefaultOpenAlexURL,
			OpenCitationsURL:    DefaultOpenCitationsURL,
			CrossrefURL:         DefaultCrossrefURL,
			DepositorReportURL:  DefaultDepositorReportURL,
			EnableOpenAlex:      true,
			EnableOpenCitations: true,
			EnableEnrichment:    true,
		},
		Pipeline: PipelineConfig{
			RequestDelay: 500 * time.Millisecond,
			PageSize:     200,
			MaxPages:     50,
		},
		Output: OutputConfig{
			Dir:          ".",
			Format:       FormatCSV,
			SummaryLimit: 20,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// UserAgentHeader returns the User-Agent value, with the contact e-mail
// appended when one is configured.
func (c Config) UserAgentHeader() string {
	if c.Sources.Email == "" {
		return c.HTTP.UserAgent
	}
	return c.HTTP.UserAgent + " (mailto:" + c.Sources.Email + ")"
}
