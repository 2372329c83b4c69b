package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Pipeline    PipelineConfig `toml:"pipeline"`
	Fetch       FetchConfig    `toml:"fetch"`
	Extract     ExtractConfig  `toml:"extract"`
	Dedup       DedupConfig    `toml:"dedup"`
	Filter      FilterConfig   `toml:"filter"`
	Score       ScoreConfig    `toml:"score"`
	Blend       BlendConfig    `toml:"blend"`
	Rank        RankConfig     `toml:"rank"`
	Sources     SourcesConfig  `toml:"sources"`
	Market      MarketConfig   `toml:"market"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	LLM         LLMConfig      `toml:"llm"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Markets     MarketsConfig  `toml:"markets"`
}

// PipelineConfig controls the overall run behavior
type PipelineConfig struct {
	LookbackHours int    `toml:"lookback_hours"` // Only articles published within this window are considered
	RunTimeout    string `toml:"run_timeout"`    // Run-level deadline as duration string; partial results are ranked on expiry
	Concurrency   int    `toml:"concurrency"`    // Number of tickers processed in parallel
	Schedule      string `toml:"schedule"`       // Cron schedule for watch mode (empty = single run)
	OutputDir     string `toml:"output_dir"`     // Directory for qualified/rejected output files
}

// FetchConfig controls the fetch scheduler
type FetchConfig struct {
	UserAgent      string        `toml:"user_agent"`       // User agent sent with every request
	Workers        int           `toml:"workers"`          // Worker pool size for page fetches
	HostDelay      time.Duration `toml:"host_delay"`       // Minimum interval between requests to the same host
	RequestTimeout time.Duration `toml:"request_timeout"`  // Per-request HTTP timeout
	MaxRetries     int           `toml:"max_retries"`      // Bounded retries per request
	MaxBodySize    int           `toml:"max_body_size"`    // Maximum response body size in bytes
	DegradeAfter   int           `toml:"degrade_after"`    // Consecutive failures before a host is skipped for the run
}

// ExtractConfig controls the extraction engine
type ExtractConfig struct {
	MinBodyLength int  `toml:"min_body_length"` // Extracted text below this length counts as extraction failure
	TryAmpURL     bool `toml:"try_amp_url"`     // Attempt a derived AMP/mobile URL when all strategies fail
	HeadlineOnly  bool `toml:"headline_only"`   // Keep extraction-failed articles as headline-only records
}

// DedupConfig controls the dedup and cache layer
type DedupConfig struct {
	SimilarityThreshold float64       `toml:"similarity_threshold"` // Token-overlap ratio above which headlines are duplicates
	Retention           time.Duration `toml:"retention"`            // How long URL ledger entries survive across runs
}

// FilterConfig controls the quality filter
type FilterConfig struct {
	AnchorWindow int `toml:"anchor_window"` // Leading characters of headline+lead searched for the entity anchor
}

// ScoreConfig controls the certainty and magnitude scorer
type ScoreConfig struct {
	BaseCertainty    float64 `toml:"base_certainty"`     // Starting certainty before bonuses
	FakeRallyCeiling float64 `toml:"fake_rally_ceiling"` // Certainty cap applied to fake-rally flagged tickers
	HeadlineCeiling  float64 `toml:"headline_ceiling"`   // Certainty cap for headline-only degraded records
}

// BlendConfig controls the signal blender
type BlendConfig struct {
	AlphaWeight    float64 `toml:"alpha_weight"`     // Weight given to the quant alpha signal
	MaxAlphaWeight float64 `toml:"max_alpha_weight"` // Safety clamp on alpha_weight
}

// RankConfig controls the threshold gate
type RankConfig struct {
	MinCertainty float64 `toml:"min_certainty"` // Qualification floor for certainty
	MinMagnitude float64 `toml:"min_magnitude"` // Qualification floor for magnitude (crore)
}

// SourcesConfig controls the source registry
type SourcesConfig struct {
	RegistryFile string `toml:"registry_file"` // Optional YAML file with additional feeds
	MaxPerFeed   int    `toml:"max_per_feed"`  // Maximum listing entries taken per feed
}

// MarketConfig contains market-data supplier configuration
type MarketConfig struct {
	BaseURL        string `toml:"base_url"`        // Market data API base URL
	APIKey         string `toml:"api_key"`         // API key (or CATALYST_MARKET_API_KEY)
	RateLimit      int    `toml:"rate_limit"`      // Requests per second
	RequestTimeout string `toml:"request_timeout"` // HTTP timeout as duration string
	AvgVolumeDays  int    `toml:"avg_volume_days"` // Window for the short average-volume baseline
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for verdict generation
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key
	Model       string  `toml:"model"`      // Model for verdict generation
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response
	Timeout     string  `toml:"timeout"`    // Per-call timeout as duration string
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for AI verdicts
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude"
	CallBudget      int         `toml:"call_budget"`      // Run-wide cap on AI calls; exhausted budget falls back to heuristics
	Enabled         bool        `toml:"enabled"`          // Disable to run fully heuristic
}

// StorageConfig contains cache persistence configuration
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean runs
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines
}

// MarketsConfig controls ticker parsing defaults
type MarketsConfig struct {
	DefaultExchange string `toml:"default_exchange"` // Exchange assumed for bare ticker symbols
}

// NewDefaultConfig creates a configuration with default values.
// The numeric thresholds are empirically tuned starting points, not proven
// optima; every one of them can be overridden from the TOML file.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Pipeline: PipelineConfig{
			LookbackHours: 24,
			RunTimeout:    "10m",
			Concurrency:   8,
			Schedule:      "",
			OutputDir:     "./output",
		},
		Fetch: FetchConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Workers:        6,
			HostDelay:      1 * time.Second,
			RequestTimeout: 20 * time.Second,
			MaxRetries:     2,
			MaxBodySize:    5 * 1024 * 1024, // 5MB
			DegradeAfter:   4,
		},
		Extract: ExtractConfig{
			MinBodyLength: 200,
			TryAmpURL:     true,
			HeadlineOnly:  true,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.8,
			Retention:           72 * time.Hour,
		},
		Filter: FilterConfig{
			AnchorWindow: 120,
		},
		Score: ScoreConfig{
			BaseCertainty:    20,
			FakeRallyCeiling: 35,
			HeadlineCeiling:  50,
		},
		Blend: BlendConfig{
			AlphaWeight:    0.10,
			MaxAlphaWeight: 0.30,
		},
		Rank: RankConfig{
			MinCertainty: 40,
			MinMagnitude: 1.0, // crore
		},
		Sources: SourcesConfig{
			RegistryFile: "",
			MaxPerFeed:   20,
		},
		Market: MarketConfig{
			BaseURL:        "https://eodhd.com/api",
			APIKey:         "",
			RateLimit:      10,
			RequestTimeout: "30s",
			AvgVolumeDays:  10,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			CallBudget:      25,
			Enabled:         true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/cache",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Markets: MarketsConfig{
			DefaultExchange: "NSE",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier ones, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CATALYST_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if hours := os.Getenv("CATALYST_LOOKBACK_HOURS"); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil {
			config.Pipeline.LookbackHours = h
		}
	}
	if timeout := os.Getenv("CATALYST_RUN_TIMEOUT"); timeout != "" {
		config.Pipeline.RunTimeout = timeout
	}
	if concurrency := os.Getenv("CATALYST_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Pipeline.Concurrency = c
		}
	}
	if dir := os.Getenv("CATALYST_OUTPUT_DIR"); dir != "" {
		config.Pipeline.OutputDir = dir
	}

	if workers := os.Getenv("CATALYST_FETCH_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Fetch.Workers = w
		}
	}
	if delay := os.Getenv("CATALYST_FETCH_HOST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Fetch.HostDelay = d
		}
	}
	if timeout := os.Getenv("CATALYST_FETCH_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Fetch.RequestTimeout = d
		}
	}
	if retries := os.Getenv("CATALYST_FETCH_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Fetch.MaxRetries = r
		}
	}

	if budget := os.Getenv("CATALYST_LLM_CALL_BUDGET"); budget != "" {
		if b, err := strconv.Atoi(budget); err == nil {
			config.LLM.CallBudget = b
		}
	}
	if enabled := os.Getenv("CATALYST_LLM_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.LLM.Enabled = e
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if key := os.Getenv("CATALYST_MARKET_API_KEY"); key != "" {
		config.Market.APIKey = key
	}
	if base := os.Getenv("CATALYST_MARKET_BASE_URL"); base != "" {
		config.Market.BaseURL = base
	}

	if path := os.Getenv("CATALYST_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if level := os.Getenv("CATALYST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CATALYST_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if exchange := os.Getenv("CATALYST_DEFAULT_EXCHANGE"); exchange != "" {
		config.Markets.DefaultExchange = exchange
	}
}

// configBounds mirrors Config for range validation of the tuned thresholds.
type configBounds struct {
	LookbackHours       int     `validate:"gt=0"`
	Concurrency         int     `validate:"gt=0"`
	Workers             int     `validate:"gt=0"`
	MaxRetries          int     `validate:"gte=0"`
	MinBodyLength       int     `validate:"gt=0"`
	SimilarityThreshold float64 `validate:"gt=0,lte=1"`
	BaseCertainty       float64 `validate:"gte=0,lte=100"`
	FakeRallyCeiling    float64 `validate:"gte=0,lte=100"`
	AlphaWeight         float64 `validate:"gte=0,lte=1"`
	MaxAlphaWeight      float64 `validate:"gte=0,lte=1"`
	MinCertainty        float64 `validate:"gte=0,lte=100"`
	MinMagnitude        float64 `validate:"gte=0"`
	CallBudget          int     `validate:"gte=0"`
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	bounds := configBounds{
		LookbackHours:       c.Pipeline.LookbackHours,
		Concurrency:         c.Pipeline.Concurrency,
		Workers:             c.Fetch.Workers,
		MaxRetries:          c.Fetch.MaxRetries,
		MinBodyLength:       c.Extract.MinBodyLength,
		SimilarityThreshold: c.Dedup.SimilarityThreshold,
		BaseCertainty:       c.Score.BaseCertainty,
		FakeRallyCeiling:    c.Score.FakeRallyCeiling,
		AlphaWeight:         c.Blend.AlphaWeight,
		MaxAlphaWeight:      c.Blend.MaxAlphaWeight,
		MinCertainty:        c.Rank.MinCertainty,
		MinMagnitude:        c.Rank.MinMagnitude,
		CallBudget:          c.LLM.CallBudget,
	}
	if err := validator.New().Struct(bounds); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := time.ParseDuration(c.Pipeline.RunTimeout); err != nil {
		return fmt.Errorf("invalid pipeline.run_timeout %q: %w", c.Pipeline.RunTimeout, err)
	}

	if c.Pipeline.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Pipeline.Schedule); err != nil {
			return fmt.Errorf("invalid pipeline.schedule %q: %w", c.Pipeline.Schedule, err)
		}
	}

	return nil
}

// RunTimeoutDuration returns the parsed run-level deadline.
func (c *Config) RunTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.RunTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}
