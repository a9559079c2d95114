package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleReport is a summarized, human-readable report.
// It extracts key findings from the full audit report for quick review.
//
// Design decision: We create a separate simplified report rather than
// just printing parts of AuditReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type SimpleReport struct {
	// SiteURL is the audited seed URL.
	SiteURL string `json:"site_url"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// === Scores ===

	// Scores holds the category scores for quick access.
	Scores *Scores `json:"scores,omitempty"`

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`

	// === Crawl Statistics ===

	// PagesCrawled is the number of pages fetched during the crawl.
	PagesCrawled int `json:"pages_crawled"`

	// Truncated indicates the crawl stopped at the page budget.
	Truncated bool `json:"truncated"`

	// TimedOut indicates the audit was terminated due to timeout.
	TimedOut bool `json:"timed_out"`

	// Error contains any error message if the audit failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single finding in the simple report.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the impact level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Category names the analyzer category that produced the finding
	// (seo, security, content, ux, performance).
	Category string `json:"category,omitempty"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (header content, URL count, etc.).
	Value string `json:"value,omitempty"`

	// Location is where the finding was discovered, usually a page URL.
	Location string `json:"location,omitempty"`
}

var findingTitleCaser = cases.Title(language.English)

// NewFinding creates a Finding of the given type, filling severity, impact,
// and recommendation from the central finding mapping. When title is empty,
// a display title is derived from the finding type.
func NewFinding(findingType, category, title, value, location string) Finding {
	info := GetFindingInfo(findingType)
	if title == "" {
		title = findingTitleCaser.String(strings.ReplaceAll(findingType, "_", " "))
	}
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Category:       category,
		Title:          title,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}

// NewSimpleReport creates a new SimpleReport from an AuditReport.
// This extracts and summarizes key findings.
func NewSimpleReport(report *AuditReport) *SimpleReport {
	simple := report.SimpleReport
	if simple == nil {
		simple = &SimpleReport{
			SiteURL:     report.SiteURL,
			DateAudited: report.DateAudited,
			Findings:    make([]Finding, 0),
		}
	}

	simple.TimedOut = report.TimedOut
	simple.Scores = report.Scores
	if report.Crawl != nil {
		simple.PagesCrawled = report.Crawl.PagesCrawled()
		simple.Truncated = report.Crawl.Truncated
	}
	if report.Error != nil {
		simple.Error = report.Error.Error()
	}

	return simple
}

// TotalFindings returns the total number of findings.
func (s *SimpleReport) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true when at least one finding was recorded.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsBySeverity returns the findings with the given severity,
// preserving insertion order.
func (s *SimpleReport) FindingsBySeverity(severity Severity) []Finding {
	var out []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}
