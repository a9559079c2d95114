package analyzer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tournx/webaudit/internal/model"
)

// URL structure limits.
const (
	maxURLLength   = 100
	maxQueryParams = 3
)

// URLStructureAnalyzer detects URL patterns that hurt crawlability and
// click-through rates.
//
// This analyzer checks for:
//   - Non-HTTPS page URLs
//   - URLs longer than 100 characters
//   - Underscores in paths (search engines treat them as joiners)
//   - Excessive query parameters
type URLStructureAnalyzer struct{}

// NewURLStructureAnalyzer creates a new URLStructureAnalyzer.
func NewURLStructureAnalyzer() *URLStructureAnalyzer {
	return &URLStructureAnalyzer{}
}

// Name returns the analyzer name.
func (a *URLStructureAnalyzer) Name() string {
	return "url-structure"
}

// Category returns the analyzer category.
func (a *URLStructureAnalyzer) Category() string {
	return CategoryTechnical
}

// Analyze examines crawled page URLs.
func (a *URLStructureAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, page := range data.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		findings = append(findings, a.checkURL(page.URL)...)
	}

	return findings, nil
}

// checkURL inspects one page URL.
func (a *URLStructureAnalyzer) checkURL(pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	u, err := url.Parse(pageURL)
	if err != nil {
		return findings
	}

	if len(pageURL) > maxURLLength {
		findings = append(findings, model.NewFinding("url_too_long", CategoryTechnical,
			"URL Too Long", fmt.Sprintf("%d characters", len(pageURL)), pageURL))
	}

	if strings.Contains(u.Path, "_") {
		findings = append(findings, model.NewFinding("url_underscores", CategoryTechnical,
			"Underscores in URL Path", u.Path, pageURL))
	}

	if params := len(u.Query()); params > maxQueryParams {
		findings = append(findings, model.NewFinding("url_many_params", CategoryTechnical,
			"Excessive Query Parameters", fmt.Sprintf("%d parameters", params), pageURL))
	}

	return findings
}
