// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make network
// requests.
type HTTPConfig struct {
	// Timeout is the per-attempt HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sragent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig holds settings for the retry/backoff controller.
type RetryConfig struct {
	// MaxAttempts is the total number of adapter invocations per strategy,
	// including the first (default 4).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the backoff delay before the second attempt; it doubles
	// each attempt after that (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// MaxDelay caps the backoff delay (default 30s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// AggregationPolicy controls when the engine stops probing strategies.
type AggregationPolicy string

const (
	// PolicyFirst stops as soon as the request goal is satisfied.
	PolicyFirst AggregationPolicy = "first"

	// PolicyExhaustive probes every planned strategy for best coverage.
	PolicyExhaustive AggregationPolicy = "exhaustive"
)

// EngineConfig holds settings for the resolution workflow engine.
type EngineConfig struct {
	// Policy selects early-stop versus exhaustive aggregation (default "first").
	Policy AggregationPolicy `json:"policy" yaml:"policy"`

	// ResolvedThreshold is the minimum top-record confidence for a result
	// with failed strategies to still count as fully resolved (default 0.8).
	ResolvedThreshold float64 `json:"resolved_threshold" yaml:"resolved_threshold"`
}

// EntrezConfig holds settings for the NCBI Entrez adapter.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent with every E-utilities request, per NCBI usage policy.
	Email string `json:"email" yaml:"email"`

	// APIKey raises the NCBI rate ceiling when present.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RateLimitCeiling is the number of throttle responses tolerated before
	// the selector deprioritizes the adapter (default 3).
	RateLimitCeiling int `json:"rate_limit_ceiling" yaml:"rate_limit_ceiling"`
}

// ENAConfig holds settings for the EBI ENA portal adapter.
type ENAConfig struct {
	HTTPConfig `yaml:",inline"`

	// RateLimitCeiling as for EntrezConfig (default 3).
	RateLimitCeiling int `json:"rate_limit_ceiling" yaml:"rate_limit_ceiling"`
}

// WebSearchConfig holds settings for the Google Programmable Search adapter.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the Custom Search JSON API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// SearchEngineID is the Programmable Search Engine identifier (cx).
	SearchEngineID string `json:"search_engine_id,omitempty" yaml:"search_engine_id,omitempty"`

	// MaxResults caps the search hits inspected per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RateLimitCeiling as for EntrezConfig (default 2).
	RateLimitCeiling int `json:"rate_limit_ceiling" yaml:"rate_limit_ceiling"`
}

// RecordsConfig holds settings for the local resolution records store.
type RecordsConfig struct {
	// Dir is the directory holding the SQLite database (default ".sragent").
	Dir string `json:"dir" yaml:"dir"`

	// MaxAge is how long a stored resolution may be reused as a cached
	// answer. Zero means forever.
	MaxAge time.Duration `json:"max_age" yaml:"max_age"`
}

// Config groups all component configurations.
type Config struct {
	Retry     RetryConfig     `json:"retry" yaml:"retry"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Entrez    EntrezConfig    `json:"entrez" yaml:"entrez"`
	ENA       ENAConfig       `json:"ena" yaml:"ena"`
	WebSearch WebSearchConfig `json:"web_search" yaml:"web_search"`
	Records   RecordsConfig   `json:"records" yaml:"records"`
}
