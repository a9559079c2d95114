package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tournx/webaudit/internal/model"
)

// minInternalLinks is the number of internal links below which a page
// is considered poorly connected.
const minInternalLinks = 3

// UXAnalyzer detects usability and accessibility problems.
//
// This analyzer checks for:
//   - Missing viewport configuration (broken mobile rendering)
//   - Missing html lang attribute
//   - Form fields without labels
//   - Links with no anchor text
//   - Pages with too few internal links
type UXAnalyzer struct{}

// NewUXAnalyzer creates a new UXAnalyzer.
func NewUXAnalyzer() *UXAnalyzer {
	return &UXAnalyzer{}
}

// Name returns the analyzer name.
func (a *UXAnalyzer) Name() string {
	return "ux"
}

// Category returns the analyzer category.
func (a *UXAnalyzer) Category() string {
	return CategoryUX
}

// Analyze examines crawled pages for usability issues.
func (a *UXAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for i, page := range data.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !page.IsHTML() {
			continue
		}

		// Site-level checks run on the seed only
		if i == 0 {
			findings = append(findings, a.checkViewport(page)...)
			findings = append(findings, a.checkLang(page)...)
		}

		findings = append(findings, a.checkFormLabels(page)...)
		findings = append(findings, a.checkEmptyLinks(page)...)
		findings = append(findings, a.checkInternalLinks(page)...)
	}

	return findings, nil
}

// checkViewport flags pages without a viewport meta tag.
// Without it, mobile browsers render the desktop layout zoomed out.
func (a *UXAnalyzer) checkViewport(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.MetaTags["viewport"] == "" {
		findings = append(findings, model.NewFinding("missing_viewport", CategoryUX,
			"Missing Viewport Meta Tag", "", page.URL))
	}

	return findings
}

// checkLang flags documents without a lang attribute on <html>.
func (a *UXAnalyzer) checkLang(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.Snapshot == "" {
		return findings
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Snapshot))
	if err != nil {
		return findings
	}

	if lang, _ := doc.Find("html").Attr("lang"); strings.TrimSpace(lang) == "" {
		findings = append(findings, model.NewFinding("missing_html_lang", CategoryUX,
			"Missing Language Declaration", "", page.URL))
	}

	return findings
}

// checkFormLabels flags form fields without associated labels.
func (a *UXAnalyzer) checkFormLabels(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	unlabeled := 0
	var firstField string
	for _, form := range page.Forms {
		for _, field := range form.Fields {
			if !field.HasLabel {
				unlabeled++
				if firstField == "" {
					firstField = field.Name
				}
			}
		}
	}

	if unlabeled > 0 {
		f := model.NewFinding("form_field_no_label", CategoryUX,
			"Form Fields Without Labels",
			fmt.Sprintf("%d fields", unlabeled), page.URL)
		if firstField != "" {
			f.Description = fmt.Sprintf("First affected field: %q", firstField)
		}
		findings = append(findings, f)
	}

	return findings
}

// checkEmptyLinks flags anchors without text or image content.
// Screen readers announce these as bare URLs.
func (a *UXAnalyzer) checkEmptyLinks(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.EmptyAnchorCount > 0 {
		findings = append(findings, model.NewFinding("links_without_text", CategoryUX,
			"Links Without Anchor Text",
			fmt.Sprintf("%d links", page.EmptyAnchorCount), page.URL))
	}

	return findings
}

// checkInternalLinks flags pages that link to almost nothing else on
// the site.
func (a *UXAnalyzer) checkInternalLinks(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if len(page.InternalLinks) < minInternalLinks {
		findings = append(findings, model.NewFinding("few_internal_links", CategoryUX,
			"Few Internal Links",
			fmt.Sprintf("%d links", len(page.InternalLinks)), page.URL))
	}

	return findings
}
