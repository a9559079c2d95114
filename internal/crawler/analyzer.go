package crawler

import (
	"fmt"

	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/model"
)

// PageAnalyzer derives audit signals and per-page issues from a fetched
// page. The Spider calls it once per successfully fetched HTML page.
//
// Design decision: The analyzer is an explicit capability interface
// injected into the Spider rather than a hardcoded step because:
//  1. Tests can substitute a recording analyzer
//  2. Callers that only need link discovery can use a no-op analyzer
//  3. Signal extraction policy can evolve independently of crawling
type PageAnalyzer interface {
	// AnalyzePage produces the signals and human-readable issues for a
	// page. parsed is nil for non-HTML responses.
	AnalyzePage(page *model.Page, parsed *ParseResult) (*model.PageSignals, []string)
}

// HTMLSignalAnalyzer is the default PageAnalyzer. It extracts the on-page
// SEO signals the crawl report aggregates.
type HTMLSignalAnalyzer struct{}

// NewHTMLSignalAnalyzer creates the default page analyzer.
func NewHTMLSignalAnalyzer() *HTMLSignalAnalyzer {
	return &HTMLSignalAnalyzer{}
}

// AnalyzePage extracts SEO signals from the parsed page and derives the
// per-page issue list.
func (a *HTMLSignalAnalyzer) AnalyzePage(page *model.Page, parsed *ParseResult) (*model.PageSignals, []string) {
	signals := &model.PageSignals{
		PageSizeKB: page.SizeKB(),
	}

	if parsed == nil {
		return signals, nil
	}

	signals.HasTitle = parsed.Title != ""
	signals.Title = parsed.Title
	signals.H1Count = parsed.HeadingCounts["h1"]
	signals.HasCanonical = parsed.Canonical != ""
	signals.HasMetaDescription = parsed.MetaDescription != ""
	signals.WordCount = parsed.WordCount

	for _, img := range parsed.Images {
		if !img.HasAlt {
			signals.ImagesMissingAlt = append(signals.ImagesMissingAlt, img.Source)
		}
	}

	return signals, a.issues(signals)
}

// issues derives the human-readable issue list from the signals.
func (a *HTMLSignalAnalyzer) issues(s *model.PageSignals) []string {
	var issues []string

	if !s.HasTitle {
		issues = append(issues, "Missing title tag")
	} else if len(s.Title) < config.TitleMinLength || len(s.Title) > config.TitleMaxLength {
		issues = append(issues, fmt.Sprintf("Title length %d outside recommended %d-%d",
			len(s.Title), config.TitleMinLength, config.TitleMaxLength))
	}

	if s.H1Count == 0 {
		issues = append(issues, "Missing H1 heading")
	}
	if s.H1Count > 1 {
		issues = append(issues, fmt.Sprintf("Multiple H1 headings (%d)", s.H1Count))
	}
	if n := len(s.ImagesMissingAlt); n > 0 {
		issues = append(issues, fmt.Sprintf("%d images without alt text", n))
	}
	if !s.HasCanonical {
		issues = append(issues, "Missing canonical URL")
	}
	if !s.HasMetaDescription {
		issues = append(issues, "Missing meta description")
	}

	return issues
}
