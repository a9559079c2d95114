package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tournx/webaudit/internal/model"
)

// DefaultBaseURL is the production PageSpeed Insights endpoint.
const DefaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// maxResponseSize bounds the API response we are willing to decode.
// Full Lighthouse payloads run a few MB.
const maxResponseSize = 32 * 1024 * 1024

// categories are the Lighthouse categories the audit requests.
var categories = []string{"performance", "accessibility", "best-practices", "seo"}

// ErrAPIUnavailable is returned when the PageSpeed API answers with a
// non-200 status.
var ErrAPIUnavailable = errors.New("pagespeed API unavailable")

// Client calls the PageSpeed Insights API.
type Client struct {
	// baseURL is the API endpoint. Overridable for tests.
	baseURL string

	// apiKey is the Google API key. Empty keys are allowed: the API
	// serves unauthenticated requests at a throttled rate.
	apiKey string

	// strategy is "mobile" or "desktop".
	strategy string

	// httpClient performs the requests.
	httpClient *http.Client
}

// NewClient creates a PageSpeed client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		strategy: "mobile",
		// Lighthouse runs take the better part of a minute.
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the Google API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithStrategy sets the analysis strategy ("mobile" or "desktop").
func WithStrategy(strategy string) Option {
	return func(c *Client) { c.strategy = strategy }
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// psiResponse is the subset of the API response the audit decodes.
type psiResponse struct {
	LighthouseResult struct {
		Categories map[string]psiCategory `json:"categories"`
		Audits     map[string]psiAudit    `json:"audits"`
	} `json:"lighthouseResult"`
}

type psiCategory struct {
	Score float64 `json:"score"`
}

type psiAudit struct {
	NumericValue float64 `json:"numericValue"`
}

// Run analyzes the given URL and returns the parsed result.
func (c *Client) Run(ctx context.Context, siteURL string) (*model.PageSpeedResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(siteURL), nil)
	if err != nil {
		return nil, fmt.Errorf("build pagespeed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagespeed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIUnavailable, resp.StatusCode)
	}

	var decoded psiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode pagespeed response: %w", err)
	}

	return c.parse(&decoded), nil
}

// requestURL builds the API URL with all audit categories.
func (c *Client) requestURL(siteURL string) string {
	params := url.Values{}
	params.Set("url", siteURL)
	params.Set("strategy", c.strategy)
	for _, cat := range categories {
		params.Add("category", cat)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return c.baseURL + "?" + params.Encode()
}

// parse converts the decoded API response into the audit's result type.
func (c *Client) parse(decoded *psiResponse) *model.PageSpeedResult {
	result := &model.PageSpeedResult{Strategy: c.strategy}

	cats := decoded.LighthouseResult.Categories
	result.Performance = categoryScore(cats, "performance")
	result.Accessibility = categoryScore(cats, "accessibility")
	result.BestPractices = categoryScore(cats, "best-practices")
	result.SEO = categoryScore(cats, "seo")

	audits := decoded.LighthouseResult.Audits
	result.Vitals = []model.CoreWebVital{
		vital("LCP", auditSeconds(audits, "largest-contentful-paint"), 2.5, 4.0),
		vital("FCP", auditSeconds(audits, "first-contentful-paint"), 1.8, 3.0),
		vital("CLS", auditValue(audits, "cumulative-layout-shift"), 0.1, 0.25),
		vital("TBT", auditValue(audits, "total-blocking-time"), 100, 300),
		vital("SI", auditSeconds(audits, "speed-index"), 3.0, 5.0),
	}

	return result
}

// categoryScore converts a 0-1 Lighthouse category score to 0-100.
func categoryScore(cats map[string]psiCategory, name string) int {
	cat, ok := cats[name]
	if !ok {
		return 0
	}
	return int(cat.Score*100 + 0.5)
}

// auditValue returns an audit's numeric value in its native unit.
func auditValue(audits map[string]psiAudit, name string) float64 {
	return audits[name].NumericValue
}

// auditSeconds returns a millisecond audit value in seconds.
func auditSeconds(audits map[string]psiAudit, name string) float64 {
	return audits[name].NumericValue / 1000
}

// vital builds a CoreWebVital with its status against the thresholds.
func vital(metric string, value, good, acceptable float64) model.CoreWebVital {
	status := "good"
	switch {
	case value > acceptable:
		status = "poor"
	case value > good:
		status = "needs_improvement"
	}

	return model.CoreWebVital{
		Metric: metric,
		Value:  value,
		Target: good,
		Status: status,
	}
}

// performanceFloor is the Lighthouse performance score below which the
// audit flags the site as slow.
const performanceFloor = 50

// Findings derives audit findings from a PageSpeed result.
func Findings(result *model.PageSpeedResult, siteURL string) []model.Finding {
	findings := make([]model.Finding, 0)
	if result == nil {
		return findings
	}

	if result.Performance < performanceFloor {
		findings = append(findings, model.NewFinding("slow_performance", "performance",
			"Low Lighthouse Performance Score",
			fmt.Sprintf("%d/100 (%s)", result.Performance, result.Strategy), siteURL))
	}

	for _, v := range result.Vitals {
		if v.Status != "poor" {
			continue
		}
		switch v.Metric {
		case "LCP":
			findings = append(findings, model.NewFinding("poor_lcp", "performance",
				"Poor Largest Contentful Paint",
				fmt.Sprintf("%.1fs (target %.1fs)", v.Value, v.Target), siteURL))
		case "FCP":
			findings = append(findings, model.NewFinding("poor_fcp", "performance",
				"Poor First Contentful Paint",
				fmt.Sprintf("%.1fs (target %.1fs)", v.Value, v.Target), siteURL))
		case "CLS":
			findings = append(findings, model.NewFinding("poor_cls", "performance",
				"Poor Cumulative Layout Shift",
				fmt.Sprintf("%.2f (target %.2f)", v.Value, v.Target), siteURL))
		}
	}

	return findings
}
