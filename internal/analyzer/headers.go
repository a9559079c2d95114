package analyzer

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/tournx/webaudit/internal/model"
)

// HeaderAnalyzer detects missing or misconfigured security headers.
//
// This analyzer checks for:
//   - Missing HSTS, CSP, X-Frame-Options, X-Content-Type-Options,
//     Referrer-Policy, and Permissions-Policy headers
//   - CSP policies weakened by unsafe-inline or unsafe-eval
//   - Server and X-Powered-By version disclosure
//   - Cookies without Secure, HttpOnly, or SameSite attributes
//   - Wildcard CORS policies
type HeaderAnalyzer struct{}

// NewHeaderAnalyzer creates a new HeaderAnalyzer.
func NewHeaderAnalyzer() *HeaderAnalyzer {
	return &HeaderAnalyzer{}
}

// Name returns the analyzer name.
func (a *HeaderAnalyzer) Name() string {
	return "headers"
}

// Category returns the analyzer category.
func (a *HeaderAnalyzer) Category() string {
	return CategorySecurity
}

// versionPattern matches a version number in a Server or X-Powered-By value.
var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// Analyze examines response headers for security issues.
// Header checks run against the seed page only: the same server
// configuration applies site-wide, and repeating the findings for every
// crawled page would drown the report.
func (a *HeaderAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	page := seedPage(data)
	if page == nil {
		return findings, nil
	}

	select {
	case <-ctx.Done():
		return findings, ctx.Err()
	default:
	}

	isHTTPS := strings.HasPrefix(page.URL, "https://")

	findings = append(findings, a.checkMissingHeaders(page, isHTTPS)...)
	findings = append(findings, a.checkCSPWeaknesses(page)...)
	findings = append(findings, a.checkVersionDisclosure(page)...)
	findings = append(findings, a.checkCookies(page, isHTTPS)...)
	findings = append(findings, a.checkCORS(page)...)

	return findings, nil
}

// checkMissingHeaders flags absent security headers.
func (a *HeaderAnalyzer) checkMissingHeaders(page *model.Page, isHTTPS bool) []model.Finding {
	findings := make([]model.Finding, 0)

	// HSTS only makes sense on HTTPS responses
	if isHTTPS && page.GetHeader("Strict-Transport-Security") == "" {
		findings = append(findings, model.NewFinding("missing_hsts", CategorySecurity,
			"Missing Strict-Transport-Security Header", "", page.URL))
	}

	if page.GetHeader("Content-Security-Policy") == "" &&
		page.GetHeader("Content-Security-Policy-Report-Only") == "" {
		findings = append(findings, model.NewFinding("missing_csp", CategorySecurity,
			"Missing Content-Security-Policy Header", "", page.URL))
	}

	if page.GetHeader("X-Frame-Options") == "" && !cspHasFrameAncestors(page) {
		findings = append(findings, model.NewFinding("missing_x_frame_options", CategorySecurity,
			"Missing X-Frame-Options Header", "", page.URL))
	}

	if page.GetHeader("X-Content-Type-Options") == "" {
		findings = append(findings, model.NewFinding("missing_x_content_type_options", CategorySecurity,
			"Missing X-Content-Type-Options Header", "", page.URL))
	}

	if page.GetHeader("Referrer-Policy") == "" {
		findings = append(findings, model.NewFinding("missing_referrer_policy", CategorySecurity,
			"Missing Referrer-Policy Header", "", page.URL))
	}

	if page.GetHeader("Permissions-Policy") == "" {
		findings = append(findings, model.NewFinding("missing_permissions_policy", CategorySecurity,
			"Missing Permissions-Policy Header", "", page.URL))
	}

	return findings
}

// cspHasFrameAncestors reports whether the CSP covers frame embedding,
// which supersedes X-Frame-Options.
func cspHasFrameAncestors(page *model.Page) bool {
	return strings.Contains(page.GetHeader("Content-Security-Policy"), "frame-ancestors")
}

// checkCSPWeaknesses flags CSP policies that allow inline or eval'd script.
func (a *HeaderAnalyzer) checkCSPWeaknesses(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	csp := page.GetHeader("Content-Security-Policy")
	if csp == "" {
		return findings
	}

	if strings.Contains(csp, "'unsafe-inline'") {
		findings = append(findings, model.NewFinding("csp_unsafe_inline", CategorySecurity,
			"CSP Allows Inline Scripts", "'unsafe-inline'", page.URL))
	}
	if strings.Contains(csp, "'unsafe-eval'") {
		findings = append(findings, model.NewFinding("csp_unsafe_eval", CategorySecurity,
			"CSP Allows eval()", "'unsafe-eval'", page.URL))
	}

	return findings
}

// checkVersionDisclosure flags Server and X-Powered-By headers that
// reveal software versions attackers can match against CVE lists.
func (a *HeaderAnalyzer) checkVersionDisclosure(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if server := page.GetHeader("Server"); server != "" && versionPattern.MatchString(server) {
		findings = append(findings, model.NewFinding("server_version_disclosed", CategorySecurity,
			"Server Version Disclosed", server, page.URL))
	}

	if powered := page.GetHeader("X-Powered-By"); powered != "" {
		findings = append(findings, model.NewFinding("x_powered_by", CategorySecurity,
			"X-Powered-By Header Present", powered, page.URL))
	}

	return findings
}

// checkCookies flags cookies set without protective attributes.
func (a *HeaderAnalyzer) checkCookies(page *model.Page, isHTTPS bool) []model.Finding {
	findings := make([]model.Finding, 0)

	for _, raw := range page.GetAllHeaders("Set-Cookie") {
		cookie := parseSetCookie(raw)
		if cookie == nil {
			continue
		}

		if isHTTPS && !cookieHasAttribute(raw, "Secure") {
			findings = append(findings, model.NewFinding("cookie_no_secure", CategorySecurity,
				"Cookie Without Secure Flag", cookie.Name, page.URL))
		}
		if !cookieHasAttribute(raw, "HttpOnly") {
			findings = append(findings, model.NewFinding("cookie_no_httponly", CategorySecurity,
				"Cookie Without HttpOnly Flag", cookie.Name, page.URL))
		}
		if !cookieHasAttribute(raw, "SameSite") {
			findings = append(findings, model.NewFinding("cookie_no_samesite", CategorySecurity,
				"Cookie Without SameSite Attribute", cookie.Name, page.URL))
		}
	}

	return findings
}

// cookieHasAttribute reports whether a raw Set-Cookie value carries the
// named attribute. Only segments after the name=value pair are checked,
// so a cookie named "secure_session" does not count as Secure.
func cookieHasAttribute(raw, attr string) bool {
	segments := strings.Split(raw, ";")
	for _, segment := range segments[1:] {
		name, _, _ := strings.Cut(segment, "=")
		if strings.EqualFold(strings.TrimSpace(name), attr) {
			return true
		}
	}
	return false
}

// parseSetCookie extracts the cookie from a raw Set-Cookie value.
// Returns nil for unparseable values.
func parseSetCookie(raw string) *http.Cookie {
	header := http.Header{}
	header.Add("Set-Cookie", raw)
	resp := http.Response{Header: header}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	return cookies[0]
}

// checkCORS flags wildcard Access-Control-Allow-Origin policies.
func (a *HeaderAnalyzer) checkCORS(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.GetHeader("Access-Control-Allow-Origin") == "*" {
		findings = append(findings, model.NewFinding("cors_wildcard", CategorySecurity,
			"Wildcard CORS Policy", "*", page.URL))
	}

	return findings
}
