package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/model"
)

// SEOAnalyzer detects on-page SEO problems.
//
// This analyzer checks for:
//   - Missing or badly sized title tags and meta descriptions
//   - Missing or duplicated H1 headings
//   - Images without alt text, missing canonical URLs
//   - Meta robots noindex directives
//   - Open Graph / Twitter Card / structured data presence
type SEOAnalyzer struct{}

// NewSEOAnalyzer creates a new SEOAnalyzer.
func NewSEOAnalyzer() *SEOAnalyzer {
	return &SEOAnalyzer{}
}

// Name returns the analyzer name.
func (a *SEOAnalyzer) Name() string {
	return "seo"
}

// Category returns the analyzer category.
func (a *SEOAnalyzer) Category() string {
	return CategorySEO
}

// Analyze examines crawled pages for on-page SEO issues.
func (a *SEOAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, page := range data.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !page.IsHTML() {
			continue
		}

		findings = append(findings, a.checkTitle(page)...)
		findings = append(findings, a.checkDescription(page)...)
		findings = append(findings, a.checkHeadings(page)...)
		findings = append(findings, a.checkImages(page)...)
		findings = append(findings, a.checkCanonical(page)...)
		findings = append(findings, a.checkRobotsMeta(page)...)
	}

	// Social and structured data matter mostly on the landing page
	if seed := seedPage(data); seed != nil {
		findings = append(findings, a.checkSocialTags(seed)...)
		findings = append(findings, a.checkStructuredData(seed)...)
	}

	return findings, nil
}

// checkTitle flags missing titles and titles outside the recommended
// 30-60 character range.
func (a *SEOAnalyzer) checkTitle(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.Title == "" {
		findings = append(findings, model.NewFinding("missing_title", CategorySEO,
			"Missing Title Tag", "", page.URL))
		return findings
	}

	length := len(page.Title)
	if length < config.TitleMinLength || length > config.TitleMaxLength {
		f := model.NewFinding("title_length", CategorySEO,
			"Title Length Outside Recommended Range",
			fmt.Sprintf("%d characters", length), page.URL)
		f.Description = fmt.Sprintf("The title %q is %d characters long; %d-%d is recommended for full display in search results.",
			page.Title, length, config.TitleMinLength, config.TitleMaxLength)
		findings = append(findings, f)
	}

	return findings
}

// checkDescription flags missing or badly sized meta descriptions.
func (a *SEOAnalyzer) checkDescription(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.MetaDescription == "" {
		findings = append(findings, model.NewFinding("missing_meta_description", CategorySEO,
			"Missing Meta Description", "", page.URL))
		return findings
	}

	length := len(page.MetaDescription)
	if length < config.DescriptionMinLength || length > config.DescriptionMaxLength {
		f := model.NewFinding("description_length", CategorySEO,
			"Meta Description Length Outside Recommended Range",
			fmt.Sprintf("%d characters", length), page.URL)
		f.Description = fmt.Sprintf("The meta description is %d characters long; %d-%d is recommended.",
			length, config.DescriptionMinLength, config.DescriptionMaxLength)
		findings = append(findings, f)
	}

	return findings
}

// checkHeadings flags pages without an H1 or with more than one.
func (a *SEOAnalyzer) checkHeadings(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	h1Count := page.HeadingCounts["h1"]
	switch {
	case h1Count == 0:
		findings = append(findings, model.NewFinding("missing_h1", CategorySEO,
			"Missing H1 Heading", "", page.URL))
	case h1Count > 1:
		findings = append(findings, model.NewFinding("multiple_h1", CategorySEO,
			"Multiple H1 Headings", fmt.Sprintf("%d headings", h1Count), page.URL))
	}

	return findings
}

// checkImages flags images without alt text.
// A single finding per page keeps the report readable on image-heavy sites.
func (a *SEOAnalyzer) checkImages(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	missing := page.ImagesMissingAlt()
	if len(missing) == 0 {
		return findings
	}

	f := model.NewFinding("image_missing_alt", CategorySEO,
		"Images Without Alt Text",
		fmt.Sprintf("%d images", len(missing)), page.URL)
	f.Description = fmt.Sprintf("First affected image: %s", missing[0])
	findings = append(findings, f)

	return findings
}

// checkCanonical flags pages without a canonical URL declaration.
func (a *SEOAnalyzer) checkCanonical(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.Canonical == "" {
		findings = append(findings, model.NewFinding("missing_canonical", CategorySEO,
			"Missing Canonical URL", "", page.URL))
	}

	return findings
}

// checkRobotsMeta flags pages served with a noindex directive.
// A noindex on a page the owner wants ranked is one of the most damaging
// misconfigurations an audit can surface.
func (a *SEOAnalyzer) checkRobotsMeta(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	robots := strings.ToLower(page.MetaTags["robots"])
	if strings.Contains(robots, "noindex") {
		findings = append(findings, model.NewFinding("meta_noindex", CategorySEO,
			"Page Excluded From Search Engines", robots, page.URL))
	}

	return findings
}

// checkSocialTags flags a landing page without Open Graph or Twitter
// Card metadata.
func (a *SEOAnalyzer) checkSocialTags(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	hasOG := false
	hasTwitter := false
	for name := range page.MetaTags {
		if strings.HasPrefix(name, "og:") {
			hasOG = true
		}
		if strings.HasPrefix(name, "twitter:") {
			hasTwitter = true
		}
	}

	if !hasOG {
		findings = append(findings, model.NewFinding("missing_open_graph", CategorySEO,
			"Missing Open Graph Tags", "", page.URL))
	}
	if !hasTwitter {
		findings = append(findings, model.NewFinding("missing_twitter_card", CategorySEO,
			"Missing Twitter Card Tags", "", page.URL))
	}

	return findings
}

// checkStructuredData flags a landing page without JSON-LD structured data.
func (a *SEOAnalyzer) checkStructuredData(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if !page.HasStructuredData {
		findings = append(findings, model.NewFinding("missing_structured_data", CategorySEO,
			"Missing Structured Data", "", page.URL))
	}

	return findings
}

// seedPage returns the first crawled page, which is always the seed.
func seedPage(data *AnalysisData) *model.Page {
	if len(data.Pages) == 0 {
		return nil
	}
	return data.Pages[0]
}
