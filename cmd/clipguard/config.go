// cmd/clipguard/config.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Host     string `json:"host"`
	Port     int    `json:"port"`
	LogPath  string `json:"log_path"`
	LogLevel string `json:"log_level"`

	// Credentials (env-only, never written to disk)
	OpenAIAPIKey    string `json:"-"`
	SearchAPIKey    string `json:"-"`
	YouTubeAPIKey   string `json:"-"`
	SpeechToTextKey string `json:"-"`

	// Collaborator endpoints
	SearchAPIURL     string `json:"search_api_url"`
	SpeechToTextURL  string `json:"speech_to_text_url"`
	ImageAnalyzerURL string `json:"image_analyzer_url"`
	CaptionsProxyURL string `json:"captions_proxy_url"`

	// Oracle
	OracleModel       string  `json:"oracle_model"`
	OracleTemperature float32 `json:"oracle_temperature"`
	EmbeddingModel    string  `json:"embedding_model"`

	// Pipeline knobs
	MaxClaims        int     `json:"max_claims"`
	MaxSearchResults int     `json:"max_search_results"`
	TopEvidence      int     `json:"top_evidence"`
	MinTrustScore    float64 `json:"min_trust_score"`
	ClaimWorkers     int     `json:"claim_workers"`

	// Trust registry
	SourceListPath   string `json:"source_list_path"`
	SourceReloadCron string `json:"source_reload_cron"`

	// Timeouts (seconds)
	SearchTimeoutSec     int `json:"search_timeout_sec"`
	OracleTimeoutSec     int `json:"oracle_timeout_sec"`
	TranscriptTimeoutSec int `json:"transcript_timeout_sec"`

	// Rate limits (requests per second)
	SearchRateLimit float64 `json:"search_rate_limit"`
	OracleRateLimit float64 `json:"oracle_rate_limit"`

	EnableSearchCache bool `json:"enable_search_cache"`
	SearchCacheTTLMin int  `json:"search_cache_ttl_min"`
}

// LoadEnv loads .env into the process environment if present. Missing
// file is fine; deployments may set real environment variables.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		Logger().Debug("No .env file loaded: %v", err)
	}
}

// LoadConfig reads config/config.json (or the path in CLIPGUARD_CONFIG),
// applies defaults, and pulls credentials from the environment.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CLIPGUARD_CONFIG")
	if path == "" {
		path = "config/config.json"
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, NewError(ErrorTypeConfig, ErrConfigLoad, "failed to read config file", err)
		}
		Logger().Warning("Config file %s not found, using defaults", path)
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, NewError(ErrorTypeConfig, ErrConfigLoad, "failed to parse config file", err)
	}

	cfg.applyDefaults()

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.SearchAPIKey = os.Getenv("SEARCH_API_KEY")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.SpeechToTextKey = os.Getenv("SPEECH_TO_TEXT_KEY")
	if proxy := os.Getenv("CAPTIONS_PROXY_URL"); proxy != "" {
		cfg.CaptionsProxyURL = proxy
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port <= 0 {
		c.Port = 8000
	}
	if c.LogPath == "" {
		c.LogPath = "logs/clipguard.log"
	}
	if c.SearchAPIURL == "" {
		c.SearchAPIURL = "https://api.tavily.com/search"
	}
	if c.OracleModel == "" {
		c.OracleModel = "gpt-4o"
	}
	if c.OracleTemperature == 0 {
		c.OracleTemperature = 0.1
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.MaxClaims <= 0 {
		c.MaxClaims = 5
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = 10
	}
	if c.TopEvidence <= 0 {
		c.TopEvidence = 5
	}
	if c.MinTrustScore <= 0 {
		c.MinTrustScore = 0.1
	}
	if c.ClaimWorkers <= 0 {
		c.ClaimWorkers = 5
	}
	if c.SourceListPath == "" {
		c.SourceListPath = "config/sources.yml"
	}
	if c.SourceReloadCron == "" {
		c.SourceReloadCron = "@every 1h"
	}
	if c.SearchTimeoutSec <= 0 {
		c.SearchTimeoutSec = 30
	}
	if c.OracleTimeoutSec <= 0 {
		c.OracleTimeoutSec = 60
	}
	if c.TranscriptTimeoutSec <= 0 {
		c.TranscriptTimeoutSec = 180
	}
	if c.SearchRateLimit <= 0 {
		c.SearchRateLimit = 2
	}
	if c.OracleRateLimit <= 0 {
		c.OracleRateLimit = 5
	}
	if c.SearchCacheTTLMin <= 0 {
		c.SearchCacheTTLMin = 30
	}
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return NewError(ErrorTypeConfig, ErrConfigValidation, "OPENAI_API_KEY is not set", nil)
	}
	if c.SearchAPIKey == "" {
		return NewError(ErrorTypeConfig, ErrConfigValidation, "SEARCH_API_KEY is not set", nil)
	}
	if c.YouTubeAPIKey == "" {
		Logger().Warning("YOUTUBE_API_KEY not set; video publish dates will be unavailable")
	}
	if c.SpeechToTextKey == "" {
		Logger().Warning("SPEECH_TO_TEXT_KEY not set; speech-to-text fallback disabled")
	}
	return nil
}

// SearchTimeout returns the per-call timeout for evidence search.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSec) * time.Second
}

// OracleTimeout returns the per-call timeout for oracle judgments.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSec) * time.Second
}

// TranscriptTimeout returns the per-call timeout for transcript and
// media operations, which run far longer than search or judgment calls.
func (c *Config) TranscriptTimeout() time.Duration {
	return time.Duration(c.TranscriptTimeoutSec) * time.Second
}

// String renders a redacted summary for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("host=%s port=%d model=%s topK=%d maxClaims=%d",
		c.Host, c.Port, c.OracleModel, c.TopEvidence, c.MaxClaims)
}
