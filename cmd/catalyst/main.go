package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/llm"
	"github.com/ternarybob/catalyst/internal/pipeline"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	tickerList   = flag.String("tickers", "", "Comma-separated ticker symbols (e.g. NSE:INFY,TCS)")
	tickerFile   = flag.String("tickers-file", "", "File with one ticker per line (SYMBOL[,Company Name[,alias...]])")
	lookback     = flag.Int("lookback", 0, "Lookback window in hours (overrides config)")
	outputDir    = flag.String("out", "", "Output directory (overrides config)")
	watchMode    = flag.Bool("watch", false, "Run on the configured cron schedule instead of once")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Catalyst version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, statErr := os.Stat("catalyst.toml"); statErr == nil {
			configFiles = append(configFiles, "catalyst.toml")
		} else if _, statErr := os.Stat("deployments/local/catalyst.toml"); statErr == nil {
			configFiles = append(configFiles, "deployments/local/catalyst.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// CLI overrides
	if *lookback > 0 {
		config.Pipeline.LookbackHours = *lookback
	}
	if *outputDir != "" {
		config.Pipeline.OutputDir = *outputDir
	}

	common.SetDefaultExchange(config.Markets.DefaultExchange)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Int("lookback_hours", config.Pipeline.LookbackHours).
		Str("output_dir", config.Pipeline.OutputDir).
		Msg("Application configuration loaded")

	targets, err := loadTargets(*tickerList, *tickerFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load ticker universe")
		os.Exit(1)
	}
	if len(targets) == 0 {
		logger.Fatal().Msg("No tickers given: use -tickers or -tickers-file")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Interrupt signal received, finishing up")
		cancel()
	}()

	if *watchMode {
		if config.Pipeline.Schedule == "" {
			logger.Fatal().Msg("Watch mode requires pipeline.schedule in config")
			os.Exit(1)
		}
		runOnSchedule(ctx, targets)
		return
	}

	if err := runOnce(ctx, targets); err != nil {
		logger.Fatal().Err(err).Msg("Pipeline run failed")
		os.Exit(1)
	}
}

// runOnce executes a single pipeline run and writes the reports.
func runOnce(ctx context.Context, targets []pipeline.Target) error {
	factory := llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)
	defer factory.Close()

	analyzer := llm.NewAnalyzer(&config.LLM, factory, llmTimeout(), logger)

	run, err := pipeline.NewRun(config, analyzer, logger)
	if err != nil {
		return err
	}
	defer run.Close()

	result, err := run.Execute(ctx, targets)
	if err != nil {
		return err
	}

	return pipeline.WriteReports(config.Pipeline.OutputDir, result, logger)
}

// runOnSchedule runs the pipeline on the configured cron schedule until
// interrupted. Each trigger is a fresh run with its own cache handle.
func runOnSchedule(ctx context.Context, targets []pipeline.Target) {
	c := cron.New()
	_, err := c.AddFunc(config.Pipeline.Schedule, func() {
		if err := runOnce(ctx, targets); err != nil {
			logger.Error().Err(err).Msg("Scheduled pipeline run failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", config.Pipeline.Schedule).Msg("Invalid schedule")
		os.Exit(1)
	}

	logger.Info().Str("schedule", config.Pipeline.Schedule).Msg("Watch mode started")
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Watch mode stopped")
}

// loadTargets builds the run universe from the -tickers flag and/or the
// tickers file. File lines are SYMBOL[,Company Name[,alias...]]; blank
// lines and # comments are skipped.
func loadTargets(list, file string) ([]pipeline.Target, error) {
	var targets []pipeline.Target
	seen := map[string]bool{}

	add := func(symbol string, aliases []string) {
		ticker := common.ParseTicker(symbol)
		if ticker.Code == "" {
			return
		}
		key := ticker.String()
		if seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, pipeline.Target{Ticker: ticker, Aliases: aliases})
	}

	if list != "" {
		for _, symbol := range strings.Split(list, ",") {
			symbol = strings.TrimSpace(symbol)
			if symbol == "" {
				continue
			}
			add(symbol, nil)
		}
	}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open tickers file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.Split(line, ",")
			var aliases []string
			for _, p := range parts[1:] {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					aliases = append(aliases, trimmed)
				}
			}
			add(strings.TrimSpace(parts[0]), aliases)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read tickers file: %w", err)
		}
	}

	return targets, nil
}

// llmTimeout picks the per-call AI timeout from the default provider.
func llmTimeout() time.Duration {
	raw := config.Gemini.Timeout
	if config.LLM.DefaultProvider == common.LLMProviderClaude {
		raw = config.Claude.Timeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
