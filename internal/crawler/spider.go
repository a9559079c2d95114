package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tournx/webaudit/internal/model"
)

// ErrInvalidSeedURL is returned when the starting URL cannot be parsed
// or does not use an http or https scheme. The error is produced before
// any network request is made.
var ErrInvalidSeedURL = errors.New("invalid seed URL")

// CrawlTarget is a queued URL together with its link distance from the
// seed. Targets are immutable once created.
type CrawlTarget struct {
	// URL is the normalized absolute URL to fetch.
	URL string

	// Depth is the link distance from the seed (seed = 0).
	Depth int
}

// Spider crawls the pages of a website breadth-first.
// It manages a FIFO queue of URLs and respects the page budget and rate
// limits.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client is the HTTP client used for all fetches.
	client *http.Client

	// maxPages limits the total number of fetch attempts per run.
	// Failed fetches count against this budget too.
	maxPages int

	// delay is the time to wait between requests.
	// This is a politeness setting to avoid overwhelming servers.
	delay time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// allDomains allows following links to hosts other than the seed's.
	// Off by default: an audit is scoped to one site.
	allDomains bool

	// headers are extra headers to send with every request.
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	// Empty means all URLs are allowed (subject to ignorePatterns).
	followPatterns []string

	// analyzer derives signals from fetched pages.
	analyzer PageAnalyzer

	// visited tracks normalized URLs already fetched this run.
	visited *VisitedSet

	// pages accumulates the fetched pages for downstream analyzers.
	pages []*model.Page
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of pages to fetch per run.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderUserAgent sets a custom User-Agent header.
func WithSpiderUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithSpiderMaxBodySize sets the maximum response body size.
func WithSpiderMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithAllDomains allows the spider to follow links to any host instead
// of only the seed's host.
func WithAllDomains(allDomains bool) SpiderOption {
	return func(s *Spider) {
		s.allDomains = allDomains
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithCookie sets a Cookie header sent with every request.
// Useful for auditing pages behind a consent wall or login.
func WithCookie(cookie string) SpiderOption {
	return func(s *Spider) {
		s.cookie = cookie
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// URLs matching any of these patterns will not be crawled.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// Patterns use glob syntax (e.g., "/blog/*", "/docs/*").
// If set, only URLs matching at least one pattern are crawled.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithPageAnalyzer sets the analyzer used to derive per-page signals.
// Callers select the analyzer explicitly; the default extracts HTML SEO
// signals.
func WithPageAnalyzer(a PageAnalyzer) SpiderOption {
	return func(s *Spider) {
		s.analyzer = a
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeout and TLS configuration is owned by the caller
//  2. Consistent with the other components that fetch
//  3. Allows for different configurations in tests
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		maxPages:    20,
		delay:       500 * time.Millisecond,
		userAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		analyzer:    NewHTMLSignalAnalyzer(),
		visited:     NewVisitedSet(),
		pages:       make([]*model.Page, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl starts crawling from the given seed URL and returns the crawl
// report. The crawl is strictly breadth-first: all depth-N pages are
// fetched before any depth-N+1 page.
//
// A failed fetch produces an error PageResult that counts against the
// page budget; it never halts the run. The report's Truncated flag is
// set when the budget ran out while unvisited URLs remained queued.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlReport, error) {
	seed, err := s.validateSeed(seedURL)
	if err != nil {
		return nil, err
	}

	normalizedSeed := s.normalizeURL(seed.String())
	report := model.NewCrawlReport(normalizedSeed, s.maxPages)

	queue := []CrawlTarget{{URL: normalizedSeed, Depth: 0}}

	for len(queue) > 0 && report.PagesCrawled() < s.maxPages {
		// Check context
		select {
		case <-ctx.Done():
			report.Finalize(false)
			return report, ctx.Err()
		default:
		}

		// Pop from queue
		target := queue[0]
		queue = queue[1:]

		// Each normalized URL is fetched at most once per run
		if !s.visited.Mark(target.URL) {
			continue
		}

		result, page, links := s.fetchPage(ctx, target)
		report.AddResult(result)
		if page != nil {
			s.pages = append(s.pages, page)
		}

		// Enqueue newly discovered links
		for _, link := range links {
			normalized := s.normalizeURL(link)
			if s.visited.Contains(normalized) {
				continue
			}
			if !s.allDomains && !s.isSameSite(seed.Host, normalized) {
				continue
			}
			if !s.shouldCrawl(normalized) {
				continue
			}
			queue = append(queue, CrawlTarget{URL: normalized, Depth: target.Depth + 1})
		}

		// Politeness delay
		if s.delay > 0 && len(queue) > 0 && report.PagesCrawled() < s.maxPages {
			select {
			case <-ctx.Done():
				report.Finalize(false)
				return report, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	report.Finalize(s.hasUnvisited(queue))
	return report, nil
}

// validateSeed parses and validates the seed URL.
// It never performs a network request.
func (s *Spider) validateSeed(seedURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeedURL, seedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSeedURL, seedURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidSeedURL, seedURL)
	}
	return u, nil
}

// hasUnvisited reports whether the remaining queue holds at least one
// URL that was never fetched. Used to decide the Truncated flag: a
// queue of already-visited duplicates does not count as truncation.
func (s *Spider) hasUnvisited(queue []CrawlTarget) bool {
	for _, target := range queue {
		if !s.visited.Contains(target.URL) {
			return true
		}
	}
	return false
}

// Pages returns the successfully fetched pages, in fetch order.
// Downstream check analyzers consume these.
func (s *Spider) Pages() []*model.Page {
	return s.pages
}

// fetchPage fetches a single page, returning its result, the page model
// for successful fetches, and discovered links.
func (s *Spider) fetchPage(ctx context.Context, target CrawlTarget) (model.PageResult, *model.Page, []string) {
	result := model.PageResult{
		URL:    target.URL,
		Depth:  target.Depth,
		Status: model.PageStatusSuccess,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		result.Status = model.PageStatusError
		result.Error = err.Error()
		return result, nil, nil
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		result.Status = model.PageStatusError
		result.Error = err.Error()
		return result, nil, nil
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	// Read body with limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		result.Status = model.PageStatusError
		result.Error = err.Error()
		return result, nil, nil
	}

	// Non-2xx responses are fetch failures for audit purposes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Status = model.PageStatusError
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result, nil, nil
	}

	page := &model.Page{
		URL:         target.URL,
		Depth:       target.Depth,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		Raw:         body,
		Snapshot:    string(body),
	}
	page.ComputeHash()
	page.TruncateSnapshot()
	page.TruncateRaw()

	var parsed *ParseResult
	var links []string
	if page.IsHTML() {
		parser, err := NewParser(target.URL)
		if err == nil {
			parsed, err = parser.Parse(strings.NewReader(string(body)))
			if err == nil {
				fillPage(page, parsed)
				links = parsed.Links
			}
		}
	}

	if s.analyzer != nil {
		signals, issues := s.analyzer.AnalyzePage(page, parsed)
		result.Signals = signals
		result.Issues = issues
	}

	return result, page, links
}

// fillPage copies parse results into the page model for downstream
// check analyzers.
func fillPage(page *model.Page, parsed *ParseResult) {
	page.Title = parsed.Title
	page.MetaDescription = parsed.MetaDescription
	page.MetaTags = parsed.MetaTags
	page.Canonical = parsed.Canonical
	page.HeadingCounts = parsed.HeadingCounts
	page.H1Texts = parsed.H1Texts
	page.Images = parsed.Images
	page.InternalLinks = parsed.InternalLinks
	page.ExternalLinks = parsed.ExternalLinks
	page.EmptyAnchorCount = parsed.EmptyAnchorCount
	page.NofollowCount = parsed.NofollowCount
	page.Forms = parsed.Forms
	page.Scripts = parsed.Scripts
	page.Stylesheets = parsed.Stylesheets
	page.HasStructuredData = parsed.HasStructuredData
	page.WordCount = parsed.WordCount
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Trailing slashes on non-root paths rarely change content
//
// Query strings are preserved: they usually select different content.
func (s *Spider) normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	// Remove fragment
	u.Fragment = ""

	// Normalize scheme and host to lowercase
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Normalize root path (empty path and "/" are equivalent)
	if u.Path == "" {
		u.Path = "/"
	}

	// Drop a single trailing slash on non-root paths
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// isSameSite checks if a URL belongs to the audited site.
// Same-site means an exact host match, case-insensitive. Subdomains are
// different sites: www.example.com and blog.example.com often run
// entirely different stacks.
func (s *Spider) isSameSite(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, baseHost)
}

// Reset clears the spider's state, allowing it to be reused.
func (s *Spider) Reset() {
	s.visited = NewVisitedSet()
	s.pages = make([]*model.Page, 0)
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	return SpiderStats{
		PagesVisited: len(s.pages),
		URLsSeen:     s.visited.Len(),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of pages successfully crawled.
	PagesVisited int

	// URLsSeen is the number of unique URLs encountered.
	URLsSeen int
}

// shouldCrawl checks if a URL should be crawled based on ignore/follow patterns.
//
// Logic:
//  1. If URL matches any ignorePattern, skip it (return false)
//  2. If followPatterns is set and URL matches none, skip it (return false)
//  3. Otherwise, crawl it (return true)
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	// Get the path for pattern matching
	path := u.Path
	if path == "" {
		path = "/"
	}

	// Check ignore patterns first - if matched, skip
	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	// If follow patterns are set, URL must match at least one
	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		// No follow pattern matched
		return false
	}

	// No follow patterns set, allow all (that weren't ignored)
	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ** is treated as * (single segment match for simplicity)
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// Handle common patterns more efficiently
	// For patterns like "/admin/*", we want to match "/admin/anything"
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Handle extension patterns like "*.pdf"
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	// Use filepath.Match for standard glob matching
	// Note: filepath.Match doesn't support ** for recursive matching,
	// but it handles * and ? well for single-segment patterns
	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Also try matching just the filename for patterns like "*.pdf"
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		filename := filepath.Base(path)
		matched, err := filepath.Match(pattern, filename)
		if err == nil && matched {
			return true
		}
	}

	return false
}
