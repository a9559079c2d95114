package model

import (
	"time"
)

// AuditReport is the main audit result structure.
// It contains all information collected while auditing one website.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage. The SimpleReport sub-struct
// groups curated findings for human-readable output.
type AuditReport struct {
	// SiteURL is the audited seed URL.
	SiteURL string `json:"site_url"`

	// Domain is the host part of the seed URL.
	Domain string `json:"domain"`

	// DateAudited is the timestamp when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// Crawl holds the aggregated crawl results.
	Crawl *CrawlReport `json:"crawl,omitempty"`

	// Pages contains all fetched pages with full parsed content.
	// Used by analyzers; excluded from JSON due to size.
	Pages []*Page `json:"-"`

	// TLS contains certificate and protocol details for HTTPS sites.
	TLS *TLSInfo `json:"tls,omitempty"`

	// Robots contains robots.txt and sitemap status.
	Robots *RobotsInfo `json:"robots,omitempty"`

	// PageSpeed contains PageSpeed Insights results when an API key was
	// configured. Nil otherwise.
	PageSpeed *PageSpeedResult `json:"pagespeed,omitempty"`

	// Scores contains the category scores computed from findings.
	Scores *Scores `json:"scores,omitempty"`

	// Recommendations contains prioritized remediation advice.
	Recommendations *Recommendations `json:"recommendations,omitempty"`

	// SimpleReport contains the summarized findings for human-readable output.
	SimpleReport *SimpleReport `json:"simple_report,omitempty"`

	// TimedOut is true if the audit was terminated due to timeout.
	TimedOut bool `json:"timed_out"`

	// PerformedSteps lists the pipeline steps that were actually executed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that occurred during the audit.
	// Only set if the audit failed or partially failed.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// TLSInfo contains the TLS details collected for an HTTPS site.
type TLSInfo struct {
	// Enabled is true when the seed URL uses the https scheme.
	Enabled bool `json:"enabled"`

	// Valid is true when the certificate chain verified against the host.
	Valid bool `json:"valid"`

	// Issuer is the certificate issuer organization.
	Issuer string `json:"issuer,omitempty"`

	// Subject is the certificate subject common name.
	Subject string `json:"subject,omitempty"`

	// NotAfter is the certificate expiry time.
	NotAfter time.Time `json:"not_after,omitempty"`

	// DaysUntilExpiry is the number of days until the certificate expires.
	// Negative when already expired.
	DaysUntilExpiry int `json:"days_until_expiry"`

	// Protocol is the negotiated TLS version (e.g., "TLS 1.3").
	Protocol string `json:"protocol,omitempty"`

	// SANs contains Subject Alternative Names.
	SANs []string `json:"sans,omitempty"` //nolint:tagliatelle // SANs is standard acronym

	// VerifyError is the certificate verification failure, if any.
	VerifyError string `json:"verify_error,omitempty"`
}

// RobotsInfo contains robots.txt and sitemap status for a site.
type RobotsInfo struct {
	// RobotsTxtFound is true when /robots.txt returned 200.
	RobotsTxtFound bool `json:"robots_txt_found"`

	// DisallowAll is true when robots.txt blocks all user agents from
	// the entire site.
	DisallowAll bool `json:"disallow_all"`

	// Sitemaps lists sitemap URLs declared in robots.txt.
	Sitemaps []string `json:"sitemaps,omitempty"`

	// SitemapFound is true when at least one sitemap was reachable.
	SitemapFound bool `json:"sitemap_found"`
}

// PageSpeedResult holds the subset of a PageSpeed Insights response
// the audit consumes.
type PageSpeedResult struct {
	// Strategy is "mobile" or "desktop".
	Strategy string `json:"strategy"`

	// Performance, Accessibility, BestPractices, and SEO are the Lighthouse
	// category scores (0-100).
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"best_practices"`
	SEO           int `json:"seo"` //nolint:tagliatelle // SEO is standard acronym

	// Vitals contains the Core Web Vitals measurements.
	Vitals []CoreWebVital `json:"vitals,omitempty"`
}

// CoreWebVital is a single Core Web Vitals measurement with its
// pass/fail assessment against the industry target.
type CoreWebVital struct {
	// Metric is the short metric name (LCP, FCP, CLS, TBT, SI).
	Metric string `json:"metric"`

	// Value is the measured value in the metric's natural unit
	// (seconds for paint metrics, unitless for CLS, ms for TBT).
	Value float64 `json:"value"`

	// Target is the industry-standard threshold for a "good" rating.
	Target float64 `json:"target"`

	// Status is "good", "needs_improvement", or "poor".
	Status string `json:"status"`
}

// Recommendations groups remediation advice by priority,
// mirroring how an agency would triage the findings.
type Recommendations struct {
	// Source is "ai" when generated by the language model,
	// "rules" for the built-in fallback.
	Source string `json:"source"`

	Critical       []Recommendation `json:"critical,omitempty"`
	HighPriority   []Recommendation `json:"high_priority,omitempty"`
	MediumPriority []Recommendation `json:"medium_priority,omitempty"`
	QuickWins      []Recommendation `json:"quick_wins,omitempty"`
}

// Recommendation is one remediation item.
type Recommendation struct {
	// Issue is the short name of the problem.
	Issue string `json:"issue"`

	// Impact is the expected business impact (High, Medium, Low).
	Impact string `json:"impact"`

	// Effort is the estimated remediation effort.
	Effort string `json:"effort"`

	// Description explains what to change.
	Description string `json:"description"`

	// ExpectedImprovement describes the likely outcome of the fix.
	ExpectedImprovement string `json:"expected_improvement,omitempty"`
}

// Total returns the number of recommendations across all priorities.
func (r *Recommendations) Total() int {
	return len(r.Critical) + len(r.HighPriority) + len(r.MediumPriority) + len(r.QuickWins)
}

// NewAuditReport creates a new report for the given site URL.
func NewAuditReport(siteURL, domain string) *AuditReport {
	return &AuditReport{
		SiteURL:     siteURL,
		Domain:      domain,
		DateAudited: time.Now(),
	}
}

// AddFinding adds a finding to the simple report.
// If the simple report doesn't exist yet, it initializes one.
//
// Duplicate findings (same type, value, and location) are dropped so that
// analyzers need not coordinate with each other.
func (r *AuditReport) AddFinding(finding Finding) {
	if r.SimpleReport == nil {
		r.SimpleReport = &SimpleReport{
			SiteURL:     r.SiteURL,
			DateAudited: r.DateAudited,
			Findings:    make([]Finding, 0),
		}
	}

	if r.SimpleReport.PagesCrawled == 0 && r.Crawl != nil {
		r.SimpleReport.PagesCrawled = r.Crawl.PagesCrawled()
	}

	for _, f := range r.SimpleReport.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}

	r.SimpleReport.Findings = append(r.SimpleReport.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.SimpleReport.CriticalCount++
	case SeverityHigh:
		r.SimpleReport.HighCount++
	case SeverityMedium:
		r.SimpleReport.MediumCount++
	case SeverityLow:
		r.SimpleReport.LowCount++
	case SeverityInfo:
		r.SimpleReport.InfoCount++
	}
}

// Findings returns the accumulated findings, or nil when none were added.
func (r *AuditReport) Findings() []Finding {
	if r.SimpleReport == nil {
		return nil
	}
	return r.SimpleReport.Findings
}

// GetPage retrieves a fetched page by URL.
// Returns nil if the page was not crawled.
func (r *AuditReport) GetPage(url string) *Page {
	for _, p := range r.Pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// SeedPage returns the page fetched for the seed URL, which is always
// the first crawled page. Returns nil when the crawl produced nothing.
func (r *AuditReport) SeedPage() *Page {
	if len(r.Pages) == 0 {
		return nil
	}
	return r.Pages[0]
}
