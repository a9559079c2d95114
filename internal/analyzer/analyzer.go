package analyzer

import (
	"context"
	"net/http"

	"github.com/tournx/webaudit/internal/model"
)

// Analyzer category constants.
const (
	// CategorySEO is used by analyzers that find search-ranking problems.
	CategorySEO = "seo"
	// CategorySecurity is used by analyzers that find security exposure.
	CategorySecurity = "security"
	// CategoryContent is used by analyzers that assess page content.
	CategoryContent = "content"
	// CategoryUX is used by analyzers that find usability and
	// accessibility problems.
	CategoryUX = "ux"
	// CategoryTechnical is used by analyzers that check site plumbing
	// (URL structure, image metadata).
	CategoryTechnical = "technical"
)

// Analyzer coordinates audit checks across multiple analyzers.
// It aggregates findings from different analysis types into a unified report.
//
// Design decision: We use a coordinator pattern rather than running analyzers
// independently because:
//  1. Some analyzers may need results from others (TLS info feeds headers)
//  2. Unified severity assessment across all findings
//  3. Deduplication of similar findings
//  4. Consistent context and cancellation handling
type Analyzer struct {
	// analyzers is the list of registered analyzers to run.
	analyzers []CheckAnalyzer

	// options configures analyzer behavior.
	options AnalyzerOptions
}

// AnalyzerOptions configures the analyzer behavior.
type AnalyzerOptions struct {
	// EnableEXIF enables EXIF metadata extraction from images.
	// This can be slow for pages with many images.
	EnableEXIF bool

	// EnableRobots enables the robots.txt and sitemap checks.
	// These perform extra network requests against the site.
	EnableRobots bool

	// EnableTLS enables the live TLS certificate check.
	EnableTLS bool
}

// DefaultOptions returns sensible default analyzer options.
func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{
		EnableEXIF:   true,
		EnableRobots: true,
		EnableTLS:    true,
	}
}

// CheckAnalyzer defines the interface for individual analyzers.
// Each analyzer focuses on a specific type of audit check.
//
// Design decision: We use an interface rather than concrete types because:
//  1. Allows for easy extension with new analyzers
//  2. Enables testing with mock analyzers
//  3. Supports different analyzer implementations for the same check type
type CheckAnalyzer interface {
	// Name returns the analyzer's name for logging and reporting.
	Name() string

	// Category returns the analyzer's category (e.g., "seo", "security").
	Category() string

	// Analyze runs the analysis on the provided data.
	// It returns findings discovered during analysis.
	Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error)
}

// AnalysisData contains all data available for analysis.
// This structure aggregates data from crawling and the live checks.
//
// Design decision: We pass all data in a single struct rather than
// multiple parameters because:
//  1. Not all analyzers need all data types
//  2. Adding new data types doesn't change analyzer signatures
//  3. Easier to mock in tests
type AnalysisData struct {
	// SiteURL is the seed URL of the audited site.
	SiteURL string

	// Domain is the hostname of the audited site.
	Domain string

	// Pages contains all successfully crawled pages.
	Pages []*model.Page

	// Report is the audit report being assembled. Analyzers may read
	// previously collected data (e.g., TLS info) and write site-level
	// facts (TLS, robots) back to it.
	Report *model.AuditReport
}

// NewAnalyzer creates a new Analyzer with all built-in analyzers registered.
func NewAnalyzer(opts ...func(*AnalyzerOptions)) *Analyzer {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	a := &Analyzer{
		options:   options,
		analyzers: make([]CheckAnalyzer, 0),
	}

	// Register built-in analyzers.
	// TLS runs first so the header and URL analyzers can read its result.
	if options.EnableTLS {
		a.Register(NewTLSAnalyzer())
	}
	a.Register(NewHeaderAnalyzer())
	a.Register(NewMixedContentAnalyzer())

	a.Register(NewSEOAnalyzer())
	a.Register(NewContentAnalyzer())
	a.Register(NewUXAnalyzer())
	a.Register(NewURLStructureAnalyzer())

	if options.EnableRobots {
		a.Register(NewRobotsAnalyzer())
	}
	if options.EnableEXIF {
		a.Register(NewEXIFAnalyzer())
	}

	return a
}

// HTTPClientSetter is implemented by analyzers that need an HTTP client.
type HTTPClientSetter interface {
	SetHTTPClient(client *http.Client)
}

// SetHTTPClient injects an HTTP client into analyzers that require it
// (robots, EXIF, TLS).
func (a *Analyzer) SetHTTPClient(client *http.Client) {
	for _, analyzer := range a.analyzers {
		if setter, ok := analyzer.(HTTPClientSetter); ok {
			setter.SetHTTPClient(client)
		}
	}
}

// Register adds an analyzer to the list.
func (a *Analyzer) Register(analyzer CheckAnalyzer) {
	a.analyzers = append(a.analyzers, analyzer)
}

// Analyze runs all registered analyzers and aggregates findings.
func (a *Analyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	var allFindings []model.Finding

	for _, analyzer := range a.analyzers {
		select {
		case <-ctx.Done():
			return allFindings, ctx.Err()
		default:
		}

		findings, err := analyzer.Analyze(ctx, data)
		if err != nil {
			// Log error but continue with other analyzers
			// We want to collect as many findings as possible
			continue
		}

		allFindings = append(allFindings, findings...)
	}

	// Deduplicate findings
	allFindings = deduplicateFindings(allFindings)

	return allFindings, nil
}

// deduplicateFindings removes duplicate findings based on title and value.
//
// Design decision: We deduplicate by title+value rather than just value because:
//  1. Same value might have different meanings in different contexts
//  2. Multiple analyzers might find the same thing
//  3. We want to keep the most severe instance of each finding
func deduplicateFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]int) // key -> index in result
	result := make([]model.Finding, 0)

	for _, f := range findings {
		key := f.Title + "|" + f.Value + "|" + f.Location
		if idx, exists := seen[key]; exists {
			// Keep the more severe finding
			if f.Severity > result[idx].Severity {
				result[idx] = f
			}
		} else {
			seen[key] = len(result)
			result = append(result, f)
		}
	}

	return result
}
