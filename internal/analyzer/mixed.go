package analyzer

import (
	"context"
	"strings"

	"github.com/tournx/webaudit/internal/model"
)

// MixedContentAnalyzer detects plain-HTTP resources on HTTPS pages.
// Browsers block or warn on such resources, breaking pages silently.
type MixedContentAnalyzer struct{}

// NewMixedContentAnalyzer creates a new MixedContentAnalyzer.
func NewMixedContentAnalyzer() *MixedContentAnalyzer {
	return &MixedContentAnalyzer{}
}

// Name returns the analyzer name.
func (a *MixedContentAnalyzer) Name() string {
	return "mixed-content"
}

// Category returns the analyzer category.
func (a *MixedContentAnalyzer) Category() string {
	return CategorySecurity
}

// Analyze scans HTTPS pages for http:// subresources.
func (a *MixedContentAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, page := range data.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !strings.HasPrefix(page.URL, "https://") {
			continue
		}

		for _, resource := range insecureResources(page) {
			findings = append(findings, model.NewFinding("mixed_content", CategorySecurity,
				"Mixed Content Resource", resource, page.URL))
		}
	}

	return findings, nil
}

// insecureResources returns the http:// subresources referenced by a page.
func insecureResources(page *model.Page) []string {
	var insecure []string

	check := func(u string) {
		if strings.HasPrefix(u, "http://") {
			insecure = append(insecure, u)
		}
	}

	for _, img := range page.Images {
		check(img.Source)
	}
	for _, script := range page.Scripts {
		check(script)
	}
	for _, sheet := range page.Stylesheets {
		check(sheet)
	}

	return insecure
}
