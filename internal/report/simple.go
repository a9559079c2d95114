package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tournx/webaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity indicators.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// The SimpleReport is regenerated so late fields (truncation, timeout,
// error) are current even when findings created it earlier.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	simple := model.NewSimpleReport(report)

	var sb strings.Builder

	w.writeHeader(&sb, simple)
	w.writeScores(&sb, simple.Scores)
	w.writeSummary(&sb, simple)
	w.writeVitals(&sb, report.PageSpeed)
	w.writeFindings(&sb, simple)
	w.writeRecommendations(&sb, report.Recommendations)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSimple outputs the simple report in human-readable format.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScores(&sb, report.Scores)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       WEBSITE AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:          %s\n", report.SiteURL))
	sb.WriteString(fmt.Sprintf("Audit Date:    %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled: %d\n", report.PagesCrawled))
	if report.Truncated {
		sb.WriteString("               (crawl stopped at the page budget)\n")
	}

	if report.TimedOut {
		sb.WriteString("Status:        TIMED OUT (partial results)\n")
	} else if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:        ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:        Complete\n")
	}

	sb.WriteString("\n")
}

// writeScores writes the category score section.
func (w *SimpleWriter) writeScores(sb *strings.Builder, scores *model.Scores) {
	if scores == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  OVERALL:       %s\n", formatScore(scores.Overall)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  SEO:           %s\n", formatScore(scores.SEO)))
	sb.WriteString(fmt.Sprintf("  Security:      %s\n", formatScore(scores.Security)))
	sb.WriteString(fmt.Sprintf("  Content:       %s\n", formatScore(scores.Content)))
	sb.WriteString(fmt.Sprintf("  Crawl:         %s\n", formatScore(scores.Crawl)))
	sb.WriteString(fmt.Sprintf("  Performance:   %s\n", formatScore(scores.Performance)))
	sb.WriteString(fmt.Sprintf("  Accessibility: %s\n", formatScore(scores.Accessibility)))
	sb.WriteString("\n")
}

// formatScore renders a score with its status band, or "n/a" when the
// category was not measured.
func formatScore(score int) string {
	if score < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%3d/100 (%s)", score, model.ScoreStatus(score))
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", report.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", report.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", report.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", report.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", report.InfoCount))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", report.TotalFindings()))
	sb.WriteString("\n")
}

// writeVitals writes the Core Web Vitals section when PageSpeed data
// was collected.
func (w *SimpleWriter) writeVitals(sb *strings.Builder, ps *model.PageSpeedResult) {
	if ps == nil || len(ps.Vitals) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("CORE WEB VITALS (%s)\n", ps.Strategy))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, v := range ps.Vitals {
		sb.WriteString(fmt.Sprintf("  %-4s %8.2f  (target %.2f)  %s\n",
			v.Metric, v.Value, v.Target, strings.ReplaceAll(v.Status, "_", " ")))
	}
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, severity := range severityOrder {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if finding.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Location))
		}
		if w.verbose && finding.Impact != "" {
			sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
		}
		if w.verbose && finding.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("    Fix: %s\n", finding.Recommendation))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeRecommendations writes the prioritized remediation section.
func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, recs *model.Recommendations) {
	if recs == nil || recs.Total() == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("RECOMMENDATIONS (%s)\n", recs.Source))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	groups := []struct {
		name  string
		items []model.Recommendation
	}{
		{"CRITICAL", recs.Critical},
		{"HIGH PRIORITY", recs.HighPriority},
		{"MEDIUM PRIORITY", recs.MediumPriority},
		{"QUICK WINS", recs.QuickWins},
	}

	for _, group := range groups {
		if len(group.items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s\n", group.name))
		for _, rec := range group.items {
			sb.WriteString(fmt.Sprintf("  * %s (impact: %s, effort: %s)\n", rec.Issue, rec.Impact, rec.Effort))
			if rec.Description != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", rec.Description))
			}
			if rec.ExpectedImprovement != "" {
				sb.WriteString(fmt.Sprintf("    Expected: %s\n", rec.ExpectedImprovement))
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by webaudit\n")
	sb.WriteString("https://github.com/tournx/webaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
