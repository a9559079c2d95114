package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to keep audits fast and polite toward the
// audited site while still collecting enough pages to be representative.
const (
	// DefaultTimeout is the connection timeout for each HTTP request.
	// 30 seconds is generous for slow origins without letting a single
	// hung page stall the whole audit.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages is the maximum number of pages to crawl per site.
	// 20 pages covers the important templates of most small-to-medium
	// sites (home, category, article, contact) while keeping an audit
	// under a minute. Users can override this via the --max-pages flag.
	DefaultMaxPages = 20

	// DefaultBatchSize of 4 concurrent audits balances throughput with
	// resource usage when auditing multiple sites from a list.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "webaudit"

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting; 500ms keeps the crawler well below
	// the request rates that trigger WAF rate limiting on typical sites.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent mimics a current desktop browser. Many sites serve
	// degraded or blocked responses to obvious bot agents, which would
	// skew the audit away from what real visitors receive.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultPageSpeedStrategy is the PageSpeed Insights analysis strategy.
	// Mobile is the default because mobile performance is what search
	// ranking and most real traffic depend on.
	DefaultPageSpeedStrategy = "mobile"
)

// Content thresholds used by the SEO and content analyzers.
// The ranges follow common search-snippet display limits.
const (
	// TitleMinLength and TitleMaxLength bound the recommended title tag
	// length. Titles under 30 characters waste snippet space; titles over
	// 60 get truncated in search results.
	TitleMinLength = 30
	TitleMaxLength = 60

	// DescriptionMinLength and DescriptionMaxLength bound the recommended
	// meta description length for full display in search snippets.
	DescriptionMinLength = 120
	DescriptionMaxLength = 160

	// MinWordCount is the threshold below which a page is flagged as
	// thin content.
	MinWordCount = 300
)

// Config holds all configuration options for WebAudit.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Timeout is the connection timeout for each HTTP request.
	// This applies to individual requests, not the overall audit duration.
	Timeout time.Duration

	// MaxPages is the maximum number of pages to crawl per site.
	// Every fetch attempt counts against this budget, including failures.
	// Must be at least 1.
	MaxPages int

	// AllDomains allows the crawler to follow links to other hosts.
	// By default only URLs on the seed's host are followed.
	AllDomains bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent audits when processing
	// multiple targets. Higher values increase throughput but multiply
	// outbound request pressure.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webaudit in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the
	// config file. This is populated by LoadConfigFile.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport and HTMLReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport and HTMLReport.
	MarkdownReport bool

	// HTMLReport enables standalone HTML report output.
	// Mutually exclusive with JSONReport and MarkdownReport.
	HTMLReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of site URLs to audit.
	// Must contain at least one URL with an http or https scheme.
	Targets []string

	// DBDir is the directory path for storing the SQLite database.
	// When set, audit results are saved for historical comparison.
	// Defaults to the XDG data directory (~/.local/share/webaudit on Linux).
	DBDir string

	// SaveToDB indicates whether to save audit results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// CrawlDelay is the delay between HTTP requests during crawling.
	// This is a politeness setting to avoid overwhelming the audited site.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// NoAI disables AI-generated recommendations. Rule-based
	// recommendations are produced instead.
	NoAI bool

	// PageSpeed enables the PageSpeed Insights integration.
	// Requires PageSpeedAPIKey to be set.
	PageSpeed bool

	// PageSpeedStrategy selects the PageSpeed analysis strategy,
	// either "mobile" or "desktop".
	PageSpeedStrategy string

	// PageSpeedAPIKey is the Google PageSpeed Insights API key.
	// Loaded from the PAGESPEED_API_KEY environment variable.
	PageSpeedAPIKey string

	// GeminiAPIKey is the Google Gemini API key used for AI
	// recommendations. Loaded from the GEMINI_API_KEY environment
	// variable. When empty, rule-based recommendations are used.
	GeminiAPIKey string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, page
// budget). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxPages:          DefaultMaxPages,
		BatchSize:         DefaultBatchSize,
		CrawlDelay:        DefaultCrawlDelay,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		PageSpeedStrategy: DefaultPageSpeedStrategy,
	}
}

// XDGDataDir returns the XDG data directory for WebAudit.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webaudit
// On macOS: ~/Library/Application Support/webaudit
// On Windows: %LOCALAPPDATA%\webaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for WebAudit.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/webaudit
// On macOS: ~/Library/Application Support/webaudit
// On Windows: %APPDATA%\webaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for WebAudit.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/webaudit
// On macOS: ~/Library/Caches/webaudit
// On Windows: %LOCALAPPDATA%\webaudit\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any auditing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one target to audit
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// MaxPages must be at least 1; the seed page is always fetched
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}

	// BatchSize must be positive; zero would mean no auditing
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Report formats are mutually exclusive
	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative; zero means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// PageSpeedStrategy must be a value the PSI API accepts
	if c.PageSpeedStrategy != "mobile" && c.PageSpeedStrategy != "desktop" {
		return ErrInvalidStrategy
	}

	return nil
}
