package report

import (
	"bytes"
	"html/template"
	"io"

	"github.com/tournx/webaudit/internal/model"
)

// HTMLWriter outputs a self-contained HTML report page.
// The page embeds its styling so the file can be opened or shared
// without any external assets.
type HTMLWriter struct {
	baseWriter

	tmpl *template.Template
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		tmpl:       template.Must(template.New("report").Funcs(htmlFuncs).Parse(htmlTemplate)),
	}
}

// htmlReportData bundles everything the template renders.
type htmlReportData struct {
	Simple          *model.SimpleReport
	Scores          *model.Scores
	PageSpeed       *model.PageSpeedResult
	Recommendations *model.Recommendations
	Severities      []htmlSeverityGroup
}

// htmlSeverityGroup is one severity bucket with its findings.
type htmlSeverityGroup struct {
	Name     string
	Class    string
	Findings []model.Finding
}

// Write outputs the full report as an HTML page.
func (w *HTMLWriter) Write(report *model.AuditReport) (int, error) {
	// Regenerate so truncation/timeout state is current
	simple := model.NewSimpleReport(report)

	data := htmlReportData{
		Simple:          simple,
		Scores:          simple.Scores,
		PageSpeed:       report.PageSpeed,
		Recommendations: report.Recommendations,
		Severities:      severityGroups(simple),
	}

	return w.render(data)
}

// WriteSimple outputs the simple report as an HTML page.
func (w *HTMLWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	data := htmlReportData{
		Simple:     report,
		Scores:     report.Scores,
		Severities: severityGroups(report),
	}

	return w.render(data)
}

// render executes the template into a buffer first so a template error
// never produces a half-written page.
func (w *HTMLWriter) render(data htmlReportData) (int, error) {
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// severityGroups buckets the findings from most to least urgent,
// skipping empty buckets.
func severityGroups(report *model.SimpleReport) []htmlSeverityGroup {
	classes := map[model.Severity]string{
		model.SeverityCritical: "critical",
		model.SeverityHigh:     "high",
		model.SeverityMedium:   "medium",
		model.SeverityLow:      "low",
		model.SeverityInfo:     "info",
	}

	var groups []htmlSeverityGroup
	for _, severity := range severityOrder {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}
		groups = append(groups, htmlSeverityGroup{
			Name:     severity.String(),
			Class:    classes[severity],
			Findings: findings,
		})
	}
	return groups
}

// htmlFuncs are the helper functions available to the template.
var htmlFuncs = template.FuncMap{
	"scoreText": func(score int) string {
		if score < 0 {
			return "n/a"
		}
		return formatScore(score)
	},
	"scoreClass": func(score int) string {
		switch {
		case score < 0:
			return "na"
		case score >= 90:
			return "excellent"
		case score >= 75:
			return "good"
		case score >= 50:
			return "needswork"
		default:
			return "poor"
		}
	},
	"vitalClass": func(status string) string {
		switch status {
		case "good":
			return "good"
		case "needs_improvement":
			return "needswork"
		default:
			return "poor"
		}
	},
}

// htmlTemplate is the self-contained report page.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Audit Report - {{.Simple.SiteURL}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f5f6f8; color: #1f2430; }
.wrap { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }
h1 { font-size: 1.6rem; }
h2 { font-size: 1.2rem; margin-top: 2rem; border-bottom: 1px solid #d8dce3; padding-bottom: .4rem; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { text-align: left; padding: .5rem .75rem; border: 1px solid #e1e4ea; font-size: .9rem; }
th { background: #eef0f4; }
.meta { color: #5a6172; font-size: .9rem; }
.scores { display: flex; flex-wrap: wrap; gap: .75rem; margin: 1rem 0; }
.score { flex: 1 1 110px; background: #fff; border: 1px solid #e1e4ea; border-radius: 6px; padding: .75rem; text-align: center; }
.score .value { font-size: 1.4rem; font-weight: 600; }
.score .label { font-size: .75rem; text-transform: uppercase; color: #5a6172; }
.excellent { color: #1a7f37; }
.good { color: #3d6fb4; }
.needswork { color: #b07d12; }
.poor { color: #c0392b; }
.na { color: #9aa1ae; }
.sev { margin-top: 1.25rem; }
.sev h3 { margin: 0 0 .5rem; font-size: 1rem; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: 4px; color: #fff; font-size: .75rem; }
.badge.critical { background: #c0392b; }
.badge.high { background: #d35400; }
.badge.medium { background: #b07d12; }
.badge.low { background: #3d6fb4; }
.badge.info { background: #7d8596; }
footer { margin-top: 2.5rem; color: #7d8596; font-size: .8rem; }
</style>
</head>
<body>
<div class="wrap">
<h1>Website Audit Report</h1>
<p class="meta">
{{.Simple.SiteURL}}<br>
{{.Simple.DateAudited.Format "2006-01-02 15:04:05 MST"}} &middot; {{.Simple.PagesCrawled}} pages crawled
{{- if .Simple.TimedOut}} &middot; timed out (partial results){{end}}
{{- if .Simple.Error}} &middot; error: {{.Simple.Error}}{{end}}
</p>

{{if .Scores}}
<h2>Scores</h2>
<div class="scores">
<div class="score"><div class="value {{scoreClass .Scores.Overall}}">{{scoreText .Scores.Overall}}</div><div class="label">Overall</div></div>
<div class="score"><div class="value {{scoreClass .Scores.SEO}}">{{scoreText .Scores.SEO}}</div><div class="label">SEO</div></div>
<div class="score"><div class="value {{scoreClass .Scores.Security}}">{{scoreText .Scores.Security}}</div><div class="label">Security</div></div>
<div class="score"><div class="value {{scoreClass .Scores.Content}}">{{scoreText .Scores.Content}}</div><div class="label">Content</div></div>
<div class="score"><div class="value {{scoreClass .Scores.Crawl}}">{{scoreText .Scores.Crawl}}</div><div class="label">Crawl</div></div>
<div class="score"><div class="value {{scoreClass .Scores.Performance}}">{{scoreText .Scores.Performance}}</div><div class="label">Performance</div></div>
<div class="score"><div class="value {{scoreClass .Scores.Accessibility}}">{{scoreText .Scores.Accessibility}}</div><div class="label">Accessibility</div></div>
</div>
{{end}}

<h2>Severity Summary</h2>
<table>
<tr><th>Severity</th><th>Count</th></tr>
<tr><td><span class="badge critical">Critical</span></td><td>{{.Simple.CriticalCount}}</td></tr>
<tr><td><span class="badge high">High</span></td><td>{{.Simple.HighCount}}</td></tr>
<tr><td><span class="badge medium">Medium</span></td><td>{{.Simple.MediumCount}}</td></tr>
<tr><td><span class="badge low">Low</span></td><td>{{.Simple.LowCount}}</td></tr>
<tr><td><span class="badge info">Info</span></td><td>{{.Simple.InfoCount}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>{{.Simple.TotalFindings}}</strong></td></tr>
</table>

{{if .PageSpeed}}{{if .PageSpeed.Vitals}}
<h2>Core Web Vitals ({{.PageSpeed.Strategy}})</h2>
<table>
<tr><th>Metric</th><th>Value</th><th>Target</th><th>Status</th></tr>
{{range .PageSpeed.Vitals}}
<tr><td>{{.Metric}}</td><td>{{printf "%.2f" .Value}}</td><td>{{printf "%.2f" .Target}}</td><td class="{{vitalClass .Status}}">{{.Status}}</td></tr>
{{end}}
</table>
{{end}}{{end}}

<h2>Findings</h2>
{{if not .Severities}}<p>No issues detected.</p>{{end}}
{{range .Severities}}
<div class="sev">
<h3><span class="badge {{.Class}}">{{.Name}}</span></h3>
<table>
<tr><th>Title</th><th>Value</th><th>Location</th><th>Recommendation</th></tr>
{{range .Findings}}
<tr><td>{{.Title}}</td><td>{{.Value}}</td><td>{{.Location}}</td><td>{{.Recommendation}}</td></tr>
{{end}}
</table>
</div>
{{end}}

{{if .Recommendations}}{{if .Recommendations.Total}}
<h2>Recommendations ({{.Recommendations.Source}})</h2>
{{with .Recommendations.Critical}}
<div class="sev"><h3><span class="badge critical">Critical</span></h3>
<table>
<tr><th>Issue</th><th>Impact</th><th>Effort</th><th>Description</th></tr>
{{range .}}<tr><td>{{.Issue}}</td><td>{{.Impact}}</td><td>{{.Effort}}</td><td>{{.Description}}</td></tr>
{{end}}
</table></div>
{{end}}
{{with .Recommendations.HighPriority}}
<div class="sev"><h3><span class="badge high">High Priority</span></h3>
<table>
<tr><th>Issue</th><th>Impact</th><th>Effort</th><th>Description</th></tr>
{{range .}}<tr><td>{{.Issue}}</td><td>{{.Impact}}</td><td>{{.Effort}}</td><td>{{.Description}}</td></tr>
{{end}}
</table></div>
{{end}}
{{with .Recommendations.MediumPriority}}
<div class="sev"><h3><span class="badge medium">Medium Priority</span></h3>
<table>
<tr><th>Issue</th><th>Impact</th><th>Effort</th><th>Description</th></tr>
{{range .}}<tr><td>{{.Issue}}</td><td>{{.Impact}}</td><td>{{.Effort}}</td><td>{{.Description}}</td></tr>
{{end}}
</table></div>
{{end}}
{{with .Recommendations.QuickWins}}
<div class="sev"><h3><span class="badge low">Quick Wins</span></h3>
<table>
<tr><th>Issue</th><th>Impact</th><th>Effort</th><th>Description</th></tr>
{{range .}}<tr><td>{{.Issue}}</td><td>{{.Impact}}</td><td>{{.Effort}}</td><td>{{.Description}}</td></tr>
{{end}}
</table></div>
{{end}}
{{end}}{{end}}

<footer>Report generated by webaudit &middot; https://github.com/tournx/webaudit</footer>
</div>
</body>
</html>
`
