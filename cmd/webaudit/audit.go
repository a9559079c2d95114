package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/database"
	"github.com/tournx/webaudit/internal/log"
	"github.com/tournx/webaudit/internal/model"
	"github.com/tournx/webaudit/internal/pipeline"
	"github.com/tournx/webaudit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a website for SEO, security, and content issues",
		Long: `Audit crawls a website and analyzes every fetched page for:
- SEO problems (missing titles, meta descriptions, heading structure)
- Security misconfigurations (missing headers, mixed content, TLS issues)
- Content quality (thin pages, broken links, missing alt text)
- Technical hygiene (robots.txt, sitemaps, canonical URLs)

Results are scored per category, stored locally for comparison, and can
be enriched with Google PageSpeed Insights metrics and AI-generated
recommendations when API keys are configured.

Examples:
  # Audit a single site
  webaudit audit https://example.com

  # Audit multiple sites concurrently
  webaudit audit https://example.com https://example.org

  # Crawl more pages with a longer timeout
  webaudit audit --max-pages 50 --timeout 60s https://example.com

  # Include PageSpeed Insights metrics (requires PAGESPEED_API_KEY)
  webaudit audit --pagespeed https://example.com

  # Output Markdown report to a file
  webaudit audit --markdown -o report.md https://example.com

  # Use a custom configuration file
  webaudit audit -c myconfig.yaml https://example.com

Configuration file (.webaudit) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      maxPages: 50`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests to the same site")
	cmd.Flags().Bool("all-domains", false,
		"Follow links to external domains (default: same domain only)")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webaudit in current or home directory)")

	// Optional integrations
	cmd.Flags().Bool("pagespeed", false,
		"Fetch Google PageSpeed Insights metrics (requires PAGESPEED_API_KEY)")
	cmd.Flags().String("strategy", config.DefaultPageSpeedStrategy,
		"PageSpeed analysis strategy: mobile or desktop")
	cmd.Flags().Bool("no-ai", false,
		"Disable AI recommendations even when GEMINI_API_KEY is set")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --html)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --html)")
	cmd.Flags().Bool("html", false,
		"Output HTML report (mutually exclusive with --json and --markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with sensitive-value redaction
	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.AllDomains, err = cmd.Flags().GetBool("all-domains")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.PageSpeed, err = cmd.Flags().GetBool("pagespeed")
	if err != nil {
		return nil, err
	}

	cfg.PageSpeedStrategy, err = cmd.Flags().GetString("strategy")
	if err != nil {
		return nil, err
	}

	cfg.NoAI, err = cmd.Flags().GetBool("no-ai")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.HTMLReport, err = cmd.Flags().GetBool("html")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// API keys come from the environment, never from flags
	cfg.LoadAPIKeys()

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (site URLs)
	cfg.Targets = args

	return cfg, nil
}

// normalizeTarget validates a target URL and fills in a missing scheme.
// Bare hostnames are assumed to be HTTPS.
func normalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("empty target URL")
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q (only http and https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", errors.New("missing hostname")
	}

	return u.String(), nil
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more site URLs as arguments)")
	}

	// Validate and normalize all target URLs
	for i, target := range cfg.Targets {
		normalized, err := normalizeTarget(target)
		if err != nil {
			return fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		cfg.Targets[i] = normalized
	}

	logger.Info("starting audit",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
		"pagespeed", cfg.PageSpeed,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Shared HTTP client for every step that touches the network
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	// Use batch processor for parallel auditing if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, client, db, logger)
	}

	// Single target or sequential auditing
	return runSequentialAudit(ctx, cfg, client, db, logger)
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, client *http.Client, db *database.AuditDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		host := hostOfTarget(target)

		// Create pipeline with site-specific options
		p := createPipelineForTarget(client, logger, cfg, cfg.SiteConfigs.GetSiteConfig(host))

		auditReport := model.NewAuditReport(target, host)

		fmt.Printf("Auditing %s...\n", target)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, auditReport); err != nil {
			logger.Error("audit failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, client *http.Client, db *database.AuditDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (cookies, headers, maxPages) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			// Batch mode shares one pipeline shape across targets, so only
			// the defaults section of the config file applies.
			var siteConfig config.SiteConfig
			if cfg.SiteConfigs != nil {
				siteConfig = cfg.SiteConfigs.Defaults
			}
			return createPipelineForTarget(client, logger, cfg, siteConfig)
		},
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	completed := 0
	_, err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(auditReport *model.AuditReport) {
		mu.Lock()
		defer mu.Unlock()

		completed++
		fmt.Printf("[%d/%d] Audit completed: %s\n", completed, len(cfg.Targets), auditReport.SiteURL)

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", auditReport.SiteURL, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "target", auditReport.SiteURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// hostOfTarget extracts the hostname from a normalized target URL.
func hostOfTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return target
	}
	return u.Hostname()
}

// createPipelineForTarget creates a pipeline with the given configuration.
func createPipelineForTarget(client *http.Client, logger *slog.Logger, cfg *config.Config, siteConfig config.SiteConfig) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineConfig(cfg),
		pipeline.WithPipelineSiteConfig(siteConfig),
	}

	return pipeline.DefaultPipeline(client, pipelineOpts, configOpts...)
}

// outputReport outputs the audit report in the requested format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	// Regenerate the summary so truncation, timeout, and error state
	// recorded after findings were added still reach the output
	auditReport.SimpleReport = model.NewSimpleReport(auditReport)

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600).
		// Reports may contain session cookies supplied via site config.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.HTMLReport:
		writer = report.NewHTMLWriter(output)
	default:
		// Human-readable report
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(auditReport)
	return err
}

// saveAuditReport saves the audit report to the database if enabled.
// If db is nil, this function is a no-op.
func saveAuditReport(ctx context.Context, db *database.AuditDB, auditReport *model.AuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Regenerate the summary before saving so the stored severity and
	// truncation state match the finished audit
	auditReport.SimpleReport = model.NewSimpleReport(auditReport)

	if err := db.SaveAuditReport(ctx, auditReport); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved to database", "target", auditReport.SiteURL)
	return nil
}
