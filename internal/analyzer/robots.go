package analyzer

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/tournx/webaudit/internal/model"
)

// maxRobotsSize limits the size of a robots.txt fetch. Real files are
// a few KB; anything larger is misconfiguration.
const maxRobotsSize = 512 * 1024

// RobotsAnalyzer checks robots.txt and sitemap availability.
// A missing robots.txt is harmless but worth flagging; a robots.txt
// that disallows everything blocks search engines entirely and is
// almost always a forgotten staging-environment setting.
//
// The analyzer issues its own HTTP requests and requires a client via
// SetHTTPClient.
type RobotsAnalyzer struct {
	// httpClient for fetching robots.txt and probing sitemaps.
	httpClient *http.Client
}

// NewRobotsAnalyzer creates a new RobotsAnalyzer.
// NOTE: You MUST call SetHTTPClient before use.
func NewRobotsAnalyzer() *RobotsAnalyzer {
	return &RobotsAnalyzer{}
}

// SetHTTPClient injects the HTTP client used for fetches.
func (a *RobotsAnalyzer) SetHTTPClient(client *http.Client) {
	a.httpClient = client
}

// Name returns the analyzer name.
func (a *RobotsAnalyzer) Name() string {
	return "robots"
}

// Category returns the analyzer category.
func (a *RobotsAnalyzer) Category() string {
	return CategorySEO
}

// Analyze fetches /robots.txt for the audited site, records the result
// on the report, and flags crawlability problems.
func (a *RobotsAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	if a.httpClient == nil {
		return nil, ErrNoHTTPClient
	}

	base, err := url.Parse(data.SiteURL)
	if err != nil {
		return nil, err
	}

	info := &model.RobotsInfo{}
	if data.Report != nil {
		data.Report.Robots = info
	}

	findings := make([]model.Finding, 0)

	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"
	body, status, err := a.fetch(ctx, robotsURL)
	if err != nil || status != http.StatusOK {
		findings = append(findings, model.NewFinding("robots_txt_missing", CategorySEO,
			"No robots.txt File", robotsURL, data.SiteURL))
		// Without robots.txt the only sitemap signal is the default path.
		findings = append(findings, a.checkSitemaps(ctx, base, nil, info)...)
		return findings, nil
	}

	info.RobotsTxtFound = true

	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		// Unparseable files are treated as allow-all by crawlers, so
		// only the sitemap probe remains useful.
		findings = append(findings, a.checkSitemaps(ctx, base, nil, info)...)
		return findings, nil
	}

	if a.disallowsAll(robots) {
		info.DisallowAll = true
		findings = append(findings, model.NewFinding("robots_disallow_all", CategorySEO,
			"robots.txt Blocks All Crawlers", "User-agent: * / Disallow: /", robotsURL))
	}

	findings = append(findings, a.checkSitemaps(ctx, base, robots.Sitemaps, info)...)

	return findings, nil
}

// disallowsAll reports whether the wildcard group blocks the site root.
func (a *RobotsAnalyzer) disallowsAll(robots *robotstxt.RobotsData) bool {
	group := robots.FindGroup("*")
	if group == nil {
		return false
	}
	return !group.Test("/")
}

// checkSitemaps verifies declared sitemaps, falling back to the
// conventional /sitemap.xml location when none are declared.
func (a *RobotsAnalyzer) checkSitemaps(ctx context.Context, base *url.URL, declared []string, info *model.RobotsInfo) []model.Finding {
	findings := make([]model.Finding, 0)

	candidates := declared
	if len(candidates) == 0 {
		candidates = []string{base.Scheme + "://" + base.Host + "/sitemap.xml"}
	}

	for _, sitemapURL := range candidates {
		if a.probe(ctx, sitemapURL) {
			info.Sitemaps = append(info.Sitemaps, sitemapURL)
			info.SitemapFound = true
		}
	}

	if !info.SitemapFound {
		value := "no sitemap declared in robots.txt and /sitemap.xml not found"
		if len(declared) > 0 {
			value = "declared sitemap unreachable: " + strings.Join(declared, ", ")
		}
		findings = append(findings, model.NewFinding("sitemap_missing", CategorySEO,
			"No XML Sitemap Found", value, base.String()))
	}

	return findings
}

// fetch retrieves a small text resource.
func (a *RobotsAnalyzer) fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// probe checks that a URL answers 200 without reading the body.
func (a *RobotsAnalyzer) probe(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode == http.StatusOK
}
