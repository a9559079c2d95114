package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/tournx/webaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	// Regenerate so truncation/timeout state is current
	simple := model.NewSimpleReport(report)

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, simple)
	w.writeScores(md, simple.Scores)
	w.writeSummary(md, simple)
	w.writeVitals(md, report.PageSpeed)
	w.writeFindings(md, simple)
	w.writeRecommendations(md, report.Recommendations)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSimple outputs the simple report in Markdown format.
func (w *MarkdownWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScores(md, report.Scores)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SimpleReport) {
	md.H1("Website Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.SiteURL + "`"},
			{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.SimpleReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	if report.Truncated {
		return "✅ Complete (crawl truncated at page budget)"
	}
	return "✅ Complete"
}

// writeScores writes the category score section.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, scores *model.Scores) {
	if scores == nil {
		return
	}

	md.H2("Scores")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Status"},
		Rows: [][]string{
			{"**Overall**", "**" + scoreCell(scores.Overall) + "**", statusCell(scores.Overall)},
			{"SEO", scoreCell(scores.SEO), statusCell(scores.SEO)},
			{"Security", scoreCell(scores.Security), statusCell(scores.Security)},
			{"Content", scoreCell(scores.Content), statusCell(scores.Content)},
			{"Crawl", scoreCell(scores.Crawl), statusCell(scores.Crawl)},
			{"Performance", scoreCell(scores.Performance), statusCell(scores.Performance)},
			{"Accessibility", scoreCell(scores.Accessibility), statusCell(scores.Accessibility)},
		},
	})
	md.PlainText("")
}

// scoreCell renders a score value for a table cell.
func scoreCell(score int) string {
	if score < 0 {
		return "n/a"
	}
	return strconv.Itoa(score) + "/100"
}

// statusCell renders a score status for a table cell.
func statusCell(score int) string {
	if score < 0 {
		return "-"
	}
	return model.ScoreStatus(score)
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.SimpleReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if report.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(report.CriticalCount))
	}
	if report.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(report.HighCount))
	}
	if report.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(report.MediumCount))
	}
	if report.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(report.LowCount))
	}
	if report.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(report.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SimpleReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"Critical issues detected! %d critical finding(s) require immediate attention.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should be addressed.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) may affect search visibility or user experience.",
			report.MediumCount,
		)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No significant issues detected.")
	}
	md.PlainText("")
}

// writeVitals writes the Core Web Vitals section.
func (w *MarkdownWriter) writeVitals(md *markdown.Markdown, ps *model.PageSpeedResult) {
	if ps == nil || len(ps.Vitals) == 0 {
		return
	}

	md.H2("Core Web Vitals")
	md.PlainText("")
	md.PlainTextf("Lighthouse strategy: `%s`", ps.Strategy)
	md.PlainText("")

	rows := make([][]string, len(ps.Vitals))
	for i, v := range ps.Vitals {
		rows[i] = []string{
			v.Metric,
			fmt.Sprintf("%.2f", v.Value),
			fmt.Sprintf("%.2f", v.Target),
			vitalStatusCell(v.Status),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value", "Target", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// vitalStatusCell renders a vital status with an indicator.
func vitalStatusCell(status string) string {
	switch status {
	case "good":
		return "✅ good"
	case "needs_improvement":
		return "🟡 needs improvement"
	case "poor":
		return "🔴 poor"
	default:
		return status
	}
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No issues detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := report.FindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "Value", "Location", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		location := f.Location
		if location == "" {
			location = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			truncateString(value, 50),
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add detailed impact notes for all findings
	for _, f := range findings {
		if f.Impact != "" {
			md.Details(f.Title, f.Impact)
		}
	}
	md.PlainText("")
}

// writeRecommendations writes the prioritized remediation section.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, recs *model.Recommendations) {
	if recs == nil || recs.Total() == 0 {
		return
	}

	md.H2("Recommendations")
	md.PlainText("")
	md.PlainTextf("Generated by: `%s`", recs.Source)
	md.PlainText("")

	groups := []struct {
		header string
		items  []model.Recommendation
	}{
		{"### Critical", recs.Critical},
		{"### High Priority", recs.HighPriority},
		{"### Medium Priority", recs.MediumPriority},
		{"### Quick Wins", recs.QuickWins},
	}

	for _, group := range groups {
		if len(group.items) == 0 {
			continue
		}

		md.PlainText(group.header)
		md.PlainText("")

		rows := make([][]string, len(group.items))
		for i, rec := range group.items {
			improvement := rec.ExpectedImprovement
			if improvement == "" {
				improvement = "-"
			}
			rows[i] = []string{
				rec.Issue,
				rec.Impact,
				rec.Effort,
				truncateString(rec.Description, 60),
				truncateString(improvement, 40),
			}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Issue", "Impact", "Effort", "Description", "Expected Improvement"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webaudit](https://github.com/tournx/webaudit)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
