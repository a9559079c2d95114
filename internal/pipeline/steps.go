package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tournx/webaudit/internal/advisor"
	"github.com/tournx/webaudit/internal/analyzer"
	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/crawler"
	"github.com/tournx/webaudit/internal/model"
	"github.com/tournx/webaudit/internal/pagespeed"
)

// CrawlStep crawls the target site and stores crawl results on the
// report.
//
// Design decision: Crawling is the first step because every later step
// consumes its output: analyzers need pages, scoring needs the crawl
// report, and the advisor needs findings derived from both.
type CrawlStep struct {
	// client performs the HTTP requests.
	client *http.Client

	// maxPages limits total pages to crawl.
	maxPages int

	// delay between requests for politeness.
	delay time.Duration

	// userAgent is the User-Agent header to send with requests.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// allDomains allows following links off the seed host.
	allDomains bool

	// headers are additional HTTP headers to send with requests.
	headers map[string]string

	// cookie is sent with every request when set.
	cookie string

	// ignorePatterns are URL path patterns to skip during crawling.
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	followPatterns []string

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the delay between requests.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlUserAgent sets the User-Agent header for HTTP requests.
func WithCrawlUserAgent(userAgent string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.userAgent = userAgent
	}
}

// WithCrawlMaxBodySize sets the maximum response body size in bytes.
func WithCrawlMaxBodySize(maxBodySize int64) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxBodySize = maxBodySize
	}
}

// WithCrawlAllDomains allows the crawl to leave the seed host.
func WithCrawlAllDomains(allDomains bool) CrawlStepOption {
	return func(s *CrawlStep) {
		s.allDomains = allDomains
	}
}

// WithCrawlHeaders sets additional HTTP headers.
func WithCrawlHeaders(headers map[string]string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.headers = headers
	}
}

// WithCrawlCookie sets the cookie sent with every request.
func WithCrawlCookie(cookie string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.cookie = cookie
	}
}

// WithCrawlIgnorePatterns sets URL path patterns to skip during crawling.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlFollowPatterns sets URL path patterns to follow during crawling.
func WithCrawlFollowPatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.followPatterns = patterns
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step.
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:      client,
		maxPages:    config.DefaultMaxPages,
		delay:       config.DefaultCrawlDelay,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. An invalid seed URL is fatal; fetch
// failures during the crawl are recorded in the crawl report instead.
func (s *CrawlStep) Do(ctx context.Context, report *model.AuditReport) error {
	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithSpiderUserAgent(s.userAgent),
		crawler.WithSpiderMaxBodySize(s.maxBodySize),
		crawler.WithAllDomains(s.allDomains),
	}
	if len(s.headers) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithHeaders(s.headers))
	}
	if s.cookie != "" {
		spiderOpts = append(spiderOpts, crawler.WithCookie(s.cookie))
	}
	if len(s.ignorePatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithIgnorePatterns(s.ignorePatterns))
	}
	if len(s.followPatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithFollowPatterns(s.followPatterns))
	}

	spider := crawler.NewSpider(s.client, spiderOpts...)

	crawlReport, err := spider.Crawl(ctx, report.SiteURL)
	if err != nil {
		if errors.Is(err, crawler.ErrInvalidSeedURL) || errors.Is(err, context.Canceled) {
			return err
		}
		// Partial results are still worth analyzing
		s.logger.Warn("crawl completed with error", "error", err)
	}

	report.Crawl = crawlReport
	report.Pages = spider.Pages()

	if crawlReport != nil {
		s.logger.Info("crawl completed",
			"pages", crawlReport.PagesCrawled(),
			"failed", crawlReport.FailedPages,
			"truncated", crawlReport.Truncated,
		)
	}

	return nil
}

// RobotsStep checks robots.txt and sitemap availability.
type RobotsStep struct {
	robots *analyzer.RobotsAnalyzer
	logger *slog.Logger
}

// NewRobotsStep creates a robots.txt check step using the given client.
func NewRobotsStep(client *http.Client) *RobotsStep {
	robots := analyzer.NewRobotsAnalyzer()
	robots.SetHTTPClient(client)
	return &RobotsStep{robots: robots, logger: slog.Default()}
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Do executes the robots.txt and sitemap checks.
func (s *RobotsStep) Do(ctx context.Context, report *model.AuditReport) error {
	data := &analyzer.AnalysisData{
		SiteURL: report.SiteURL,
		Domain:  report.Domain,
		Pages:   report.Pages,
		Report:  report,
	}

	findings, err := s.robots.Analyze(ctx, data)
	if err != nil {
		s.logger.Warn("robots check failed", "error", err)
		return nil
	}

	for _, f := range findings {
		report.AddFinding(f)
	}
	return nil
}

// TLSStep inspects the site's certificate and HTTPS deployment.
type TLSStep struct {
	tls    *analyzer.TLSAnalyzer
	logger *slog.Logger
}

// NewTLSStep creates a TLS inspection step using the given client for
// the HTTP-redirect probe.
func NewTLSStep(client *http.Client) *TLSStep {
	tlsCheck := analyzer.NewTLSAnalyzer()
	tlsCheck.SetHTTPClient(client)
	return &TLSStep{tls: tlsCheck, logger: slog.Default()}
}

// Name returns the step name.
func (s *TLSStep) Name() string {
	return "tls"
}

// Do executes the TLS inspection.
func (s *TLSStep) Do(ctx context.Context, report *model.AuditReport) error {
	data := &analyzer.AnalysisData{
		SiteURL: report.SiteURL,
		Domain:  report.Domain,
		Pages:   report.Pages,
		Report:  report,
	}

	findings, err := s.tls.Analyze(ctx, data)
	if err != nil {
		s.logger.Warn("tls check failed", "error", err)
		return nil
	}

	for _, f := range findings {
		report.AddFinding(f)
	}
	return nil
}

// PageSpeedStep collects Lighthouse scores and Core Web Vitals.
// The step is only added to the pipeline when the operator enabled it.
type PageSpeedStep struct {
	client *pagespeed.Client
	logger *slog.Logger
}

// NewPageSpeedStep creates a PageSpeed collection step.
func NewPageSpeedStep(client *pagespeed.Client) *PageSpeedStep {
	return &PageSpeedStep{client: client, logger: slog.Default()}
}

// Name returns the step name.
func (s *PageSpeedStep) Name() string {
	return "pagespeed"
}

// Do fetches PageSpeed data. API failures are non-fatal: the audit
// simply reports performance data as unavailable.
func (s *PageSpeedStep) Do(ctx context.Context, report *model.AuditReport) error {
	result, err := s.client.Run(ctx, report.SiteURL)
	if err != nil {
		s.logger.Warn("pagespeed collection failed", "error", err)
		return nil
	}

	report.PageSpeed = result
	for _, f := range pagespeed.Findings(result, report.SiteURL) {
		report.AddFinding(f)
	}

	s.logger.Info("pagespeed collected",
		"performance", result.Performance,
		"accessibility", result.Accessibility,
	)
	return nil
}

// AnalyzeStep runs the finding analyzers over the crawled pages.
// Robots and TLS run as their own steps, so the coordinator here has
// them disabled to avoid duplicate work.
type AnalyzeStep struct {
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// AnalyzeStepOption configures an AnalyzeStep.
type AnalyzeStepOption func(*AnalyzeStep)

// WithAnalyzeHTTPClient injects an HTTP client into analyzers that need
// it (EXIF image fetching).
func WithAnalyzeHTTPClient(client *http.Client) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.analyzer.SetHTTPClient(client)
	}
}

// WithAnalyzeLogger sets a custom logger for the analyze step.
func WithAnalyzeLogger(logger *slog.Logger) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.logger = logger
	}
}

// NewAnalyzeStep creates a finding analysis step.
func NewAnalyzeStep(opts ...AnalyzeStepOption) *AnalyzeStep {
	s := &AnalyzeStep{
		analyzer: analyzer.NewAnalyzer(func(o *analyzer.AnalyzerOptions) {
			o.EnableRobots = false
			o.EnableTLS = false
		}),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the finding analysis step.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.AuditReport) error {
	if len(report.Pages) == 0 {
		s.logger.Debug("skipping analysis, no pages crawled")
		return nil
	}

	data := &analyzer.AnalysisData{
		SiteURL: report.SiteURL,
		Domain:  report.Domain,
		Pages:   report.Pages,
		Report:  report,
	}

	findings, err := s.analyzer.Analyze(ctx, data)
	if err != nil {
		// Partial findings are still reported
		s.logger.Warn("analysis completed with error", "error", err)
	}

	for _, f := range findings {
		report.AddFinding(f)
	}

	s.logger.Info("analysis completed", "findings", len(findings))
	return nil
}

// AdvisorStep generates prioritized recommendations.
// With a Gemini key it asks the model; otherwise, or when the model
// fails, it falls back to the rule-based generator.
type AdvisorStep struct {
	// apiKey is the Gemini API key. Empty means rules only.
	apiKey string

	// disableAI forces the rule-based generator even when a key exists.
	disableAI bool

	// logger for structured logging.
	logger *slog.Logger
}

// AdvisorStepOption configures an AdvisorStep.
type AdvisorStepOption func(*AdvisorStep)

// WithAdvisorAPIKey sets the Gemini API key.
func WithAdvisorAPIKey(key string) AdvisorStepOption {
	return func(s *AdvisorStep) {
		s.apiKey = key
	}
}

// WithAdvisorDisabled forces rule-based recommendations.
func WithAdvisorDisabled(disabled bool) AdvisorStepOption {
	return func(s *AdvisorStep) {
		s.disableAI = disabled
	}
}

// WithAdvisorLogger sets a custom logger for the advisor step.
func WithAdvisorLogger(logger *slog.Logger) AdvisorStepOption {
	return func(s *AdvisorStep) {
		s.logger = logger
	}
}

// NewAdvisorStep creates a recommendation step.
func NewAdvisorStep(opts ...AdvisorStepOption) *AdvisorStep {
	s := &AdvisorStep{logger: slog.Default()}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AdvisorStep) Name() string {
	return "advisor"
}

// Do generates recommendations, never failing the pipeline: the
// rule-based generator always produces something.
func (s *AdvisorStep) Do(ctx context.Context, report *model.AuditReport) error {
	if !s.disableAI && s.apiKey != "" {
		if recs := s.aiRecommendations(ctx, report); recs != nil {
			report.Recommendations = recs
			return nil
		}
	}

	report.Recommendations = advisor.RuleBased(report)
	return nil
}

// aiRecommendations asks the model, returning nil on any failure.
func (s *AdvisorStep) aiRecommendations(ctx context.Context, report *model.AuditReport) *model.Recommendations {
	a, err := advisor.New(ctx, s.apiKey)
	if err != nil {
		s.logger.Warn("advisor unavailable, using rules", "error", err)
		return nil
	}
	defer a.Close()

	recs, err := a.Recommend(ctx, report)
	if err != nil {
		s.logger.Warn("ai recommendations failed, using rules", "error", err)
		return nil
	}

	s.logger.Info("ai recommendations generated", "total", recs.Total())
	return recs
}

// ScoreStep computes the category scores from the accumulated report.
// It runs last so every finding and the PageSpeed data are in place.
type ScoreStep struct {
	logger *slog.Logger
}

// NewScoreStep creates a scoring step.
func NewScoreStep() *ScoreStep {
	return &ScoreStep{logger: slog.Default()}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return "score"
}

// severityDeductions maps finding severity to score penalty.
var severityDeductions = map[model.Severity]int{
	model.SeverityCritical: 20,
	model.SeverityHigh:     10,
	model.SeverityMedium:   5,
	model.SeverityLow:      2,
}

// Do computes the audit scores.
func (s *ScoreStep) Do(_ context.Context, report *model.AuditReport) error {
	scores := model.NewScores()

	if report.Crawl != nil {
		scores.Crawl = report.Crawl.Score()
	} else {
		scores.Crawl = -1
	}

	// Category scores start at 100 and lose points per finding.
	// UX findings count against content: both measure how well the
	// pages serve a human reader.
	seo, security, content := 100, 100, 100
	if report.SimpleReport != nil {
		for _, f := range report.SimpleReport.Findings {
			deduction := severityDeductions[f.Severity]
			switch f.Category {
			case analyzer.CategorySEO, analyzer.CategoryTechnical:
				seo -= deduction
			case analyzer.CategorySecurity:
				security -= deduction
			case analyzer.CategoryContent, analyzer.CategoryUX:
				content -= deduction
			}
		}
	}
	scores.SEO = clampScore(seo)
	scores.Security = clampScore(security)
	scores.Content = clampScore(content)

	if ps := report.PageSpeed; ps != nil {
		scores.Performance = ps.Performance
		scores.Accessibility = ps.Accessibility
	}

	scores.ComputeOverall()
	report.Scores = scores
	if report.SimpleReport != nil {
		report.SimpleReport.Scores = scores
	}

	s.logger.Info("scores computed",
		"overall", scores.Overall,
		"seo", scores.SEO,
		"security", scores.Security,
	)
	return nil
}

// clampScore bounds a score to the 0-100 range.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages is the maximum number of pages to crawl.
	MaxPages int

	// CrawlDelay is the delay between HTTP requests during crawling.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// AllDomains allows the crawl to follow links off the seed host.
	AllDomains bool

	// Cookie is the cookie string to send with HTTP requests.
	Cookie string

	// Headers are additional HTTP headers to send with requests.
	Headers map[string]string

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	FollowPatterns []string

	// PageSpeed enables the PageSpeed collection step.
	PageSpeed bool

	// PageSpeedAPIKey is the Google API key for PageSpeed.
	PageSpeedAPIKey string

	// PageSpeedStrategy is "mobile" or "desktop".
	PageSpeedStrategy string

	// GeminiAPIKey is the API key for AI recommendations.
	GeminiAPIKey string

	// NoAI forces rule-based recommendations.
	NoAI bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConfig applies settings from the resolved configuration.
func WithPipelineConfig(cfg *config.Config) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = cfg.MaxPages
		c.CrawlDelay = cfg.CrawlDelay
		c.UserAgent = cfg.UserAgent
		c.MaxBodySize = cfg.MaxBodySize
		c.AllDomains = cfg.AllDomains
		c.PageSpeed = cfg.PageSpeed
		c.PageSpeedAPIKey = cfg.PageSpeedAPIKey
		c.PageSpeedStrategy = cfg.PageSpeedStrategy
		c.GeminiAPIKey = cfg.GeminiAPIKey
		c.NoAI = cfg.NoAI
	}
}

// WithPipelineSiteConfig applies per-site overrides from the config file.
func WithPipelineSiteConfig(site config.SiteConfig) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if site.MaxPages > 0 {
			c.MaxPages = site.MaxPages
		}
		if site.Cookie != "" {
			c.Cookie = site.Cookie
		}
		if len(site.Headers) > 0 {
			c.Headers = site.Headers
		}
		if len(site.IgnorePatterns) > 0 {
			c.IgnorePatterns = site.IgnorePatterns
		}
		if len(site.FollowPatterns) > 0 {
			c.FollowPatterns = site.FollowPatterns
		}
	}
}

// DefaultPipeline creates a pipeline with the standard audit steps.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full audit
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent step ordering (scoring must run last)
func DefaultPipeline(client *http.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxPages:          config.DefaultMaxPages,
		CrawlDelay:        config.DefaultCrawlDelay,
		UserAgent:         config.DefaultUserAgent,
		MaxBodySize:       config.DefaultMaxBodySize,
		PageSpeedStrategy: config.DefaultPageSpeedStrategy,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	crawlOpts := []CrawlStepOption{
		WithCrawlMaxPages(cfg.MaxPages),
		WithCrawlDelay(cfg.CrawlDelay),
		WithCrawlUserAgent(cfg.UserAgent),
		WithCrawlMaxBodySize(cfg.MaxBodySize),
		WithCrawlAllDomains(cfg.AllDomains),
	}
	if cfg.Cookie != "" {
		crawlOpts = append(crawlOpts, WithCrawlCookie(cfg.Cookie))
	}
	if len(cfg.Headers) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlHeaders(cfg.Headers))
	}
	if len(cfg.IgnorePatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlIgnorePatterns(cfg.IgnorePatterns))
	}
	if len(cfg.FollowPatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlFollowPatterns(cfg.FollowPatterns))
	}

	p.AddSteps(
		NewCrawlStep(client, crawlOpts...),
		NewRobotsStep(client),
		NewTLSStep(client),
	)

	if cfg.PageSpeed {
		p.AddStep(NewPageSpeedStep(pagespeed.NewClient(
			pagespeed.WithAPIKey(cfg.PageSpeedAPIKey),
			pagespeed.WithStrategy(cfg.PageSpeedStrategy),
		)))
	}

	p.AddSteps(
		NewAnalyzeStep(WithAnalyzeHTTPClient(client)),
		NewAdvisorStep(
			WithAdvisorAPIKey(cfg.GeminiAPIKey),
			WithAdvisorDisabled(cfg.NoAI),
		),
		NewScoreStep(),
	)

	return p
}
