package model

// Severity represents the impact level of an audit finding.
// This allows categorizing findings by their effect on search visibility,
// security posture, and user experience.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct impact.
	// Examples: Twitter Card tags absent, robots.txt present.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: long URLs, slightly short title tags.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: missing meta descriptions, images without alt text.
	SeverityMedium

	// SeverityHigh indicates serious issues that measurably hurt ranking,
	// security, or conversion. Examples: missing HSTS, mixed content,
	// missing viewport tag.
	SeverityHigh

	// SeverityCritical indicates severe issues that require immediate
	// attention. Examples: no HTTPS, expired certificate, an accidental
	// noindex directive removing the site from search results.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent assessment across analyzers.
//
// Design decision: We use a map rather than embedding severity in each finding
// type because:
// 1. It allows updating assessments without modifying type definitions
// 2. It provides a single source of truth for severity levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - immediate visibility or security loss
	"no_https": {
		Severity:       SeverityCritical,
		Impact:         "The site is served over plain HTTP. Browsers flag it as not secure, traffic can be intercepted, and search engines penalize non-HTTPS sites.",
		Recommendation: "Obtain a TLS certificate and serve all pages over HTTPS with a redirect from HTTP.",
	},
	"ssl_expired": {
		Severity:       SeverityCritical,
		Impact:         "The TLS certificate has expired. Browsers block access with a full-page warning, making the site effectively unreachable.",
		Recommendation: "Renew the certificate immediately and set up automated renewal (e.g., ACME/Let's Encrypt).",
	},
	"meta_noindex": {
		Severity:       SeverityCritical,
		Impact:         "A robots meta tag instructs search engines not to index the page, removing it from search results entirely.",
		Recommendation: "Remove the noindex directive unless the page is intentionally hidden from search engines.",
	},
	"robots_disallow_all": {
		Severity:       SeverityCritical,
		Impact:         "robots.txt disallows all crawlers for the entire site, preventing any page from being indexed.",
		Recommendation: "Replace the blanket Disallow rule with targeted rules for private paths only.",
	},

	// HIGH - measurable ranking, security, or conversion damage
	"ssl_invalid": {
		Severity:       SeverityHigh,
		Impact:         "The TLS certificate failed validation (wrong host, untrusted issuer, or broken chain). Visitors see security warnings.",
		Recommendation: "Install a certificate that matches the domain and includes the full issuer chain.",
	},
	"missing_hsts": {
		Severity:       SeverityHigh,
		Impact:         "Without Strict-Transport-Security, first visits can be downgraded to HTTP by an active attacker.",
		Recommendation: "Add a Strict-Transport-Security header with a max-age of at least six months.",
	},
	"missing_csp": {
		Severity:       SeverityHigh,
		Impact:         "Without a Content-Security-Policy, injected scripts run unrestricted, enabling XSS and content-injection attacks.",
		Recommendation: "Define a Content-Security-Policy that restricts script and resource origins.",
	},
	"mixed_content": {
		Severity:       SeverityHigh,
		Impact:         "HTTP resources on an HTTPS page are blocked or trigger warnings in modern browsers and undermine transport security.",
		Recommendation: "Serve all images, scripts, and stylesheets over HTTPS.",
	},
	"cors_wildcard": {
		Severity:       SeverityHigh,
		Impact:         "Access-Control-Allow-Origin: * lets any website read responses from this origin.",
		Recommendation: "Restrict CORS to the specific origins that need cross-origin access.",
	},
	"missing_title": {
		Severity:       SeverityHigh,
		Impact:         "Pages without a title tag lose their most important on-page ranking signal and display poorly in search results.",
		Recommendation: "Add a unique, descriptive title of 30-60 characters to every page.",
	},
	"missing_viewport": {
		Severity:       SeverityHigh,
		Impact:         "Without a viewport meta tag the page renders at desktop width on phones, failing mobile-friendliness checks.",
		Recommendation: `Add <meta name="viewport" content="width=device-width, initial-scale=1"> to the page head.`,
	},
	"slow_performance": {
		Severity:       SeverityHigh,
		Impact:         "A low performance score correlates with higher bounce rates and lower search ranking.",
		Recommendation: "Optimize images, enable compression, and defer non-critical JavaScript.",
	},
	"poor_lcp": {
		Severity:       SeverityHigh,
		Impact:         "Largest Contentful Paint above 2.5s means the main content is slow to appear, a Core Web Vitals failure.",
		Recommendation: "Optimize the largest above-the-fold element: compress hero images and reduce server response time.",
	},

	// MEDIUM - should be fixed, moderate impact
	"ssl_expiring_soon": {
		Severity:       SeverityMedium,
		Impact:         "The TLS certificate expires within 30 days. If it lapses, the site becomes unreachable behind browser warnings.",
		Recommendation: "Renew the certificate now and automate future renewals.",
	},
	"missing_meta_description": {
		Severity:       SeverityMedium,
		Impact:         "Without a meta description, search engines generate the snippet themselves, usually reducing click-through rates.",
		Recommendation: "Write a 120-160 character description summarizing each page.",
	},
	"missing_h1": {
		Severity:       SeverityMedium,
		Impact:         "A page without an H1 lacks a clear topical heading for both users and search engines.",
		Recommendation: "Add exactly one H1 heading describing the page's main topic.",
	},
	"image_missing_alt": {
		Severity:       SeverityMedium,
		Impact:         "Images without alt text are invisible to screen readers and image search.",
		Recommendation: "Add descriptive alt text to content images; use empty alt only for decorative images.",
	},
	"missing_canonical": {
		Severity:       SeverityMedium,
		Impact:         "Without a canonical URL, parameter and protocol variants of the same page can split ranking signals.",
		Recommendation: `Declare <link rel="canonical"> on every indexable page.`,
	},
	"missing_structured_data": {
		Severity:       SeverityMedium,
		Impact:         "Without Schema.org markup, the site is not eligible for rich results in search listings.",
		Recommendation: "Add JSON-LD structured data for the site's content type (Organization, Product, Article, etc.).",
	},
	"sitemap_missing": {
		Severity:       SeverityMedium,
		Impact:         "Without a sitemap, search engines may discover new or deep pages slowly.",
		Recommendation: "Publish a sitemap.xml and reference it from robots.txt.",
	},
	"csp_unsafe_inline": {
		Severity:       SeverityMedium,
		Impact:         "The Content-Security-Policy allows 'unsafe-inline' scripts, which weakens XSS protection.",
		Recommendation: "Move inline scripts to files and use nonces or hashes instead of 'unsafe-inline'.",
	},
	"csp_unsafe_eval": {
		Severity:       SeverityMedium,
		Impact:         "The Content-Security-Policy allows 'unsafe-eval', which can be exploited for code injection.",
		Recommendation: "Remove eval-style constructs and drop 'unsafe-eval' from the policy.",
	},
	"missing_x_frame_options": {
		Severity:       SeverityMedium,
		Impact:         "Without X-Frame-Options (or frame-ancestors), the site can be embedded in a hostile frame for clickjacking.",
		Recommendation: "Add X-Frame-Options: DENY or a frame-ancestors CSP directive.",
	},
	"server_version_disclosed": {
		Severity:       SeverityMedium,
		Impact:         "The Server header reveals software and version, helping attackers pick known exploits.",
		Recommendation: "Configure the server to suppress version information in response headers.",
	},
	"x_powered_by": {
		Severity:       SeverityMedium,
		Impact:         "The X-Powered-By header reveals the technology stack for targeted attacks.",
		Recommendation: "Remove or suppress the X-Powered-By header.",
	},
	"cookie_no_secure": {
		Severity:       SeverityMedium,
		Impact:         "Cookies without the Secure flag are sent over plain HTTP and can be intercepted.",
		Recommendation: "Set the Secure flag on all cookies.",
	},
	"cookie_no_httponly": {
		Severity:       SeverityMedium,
		Impact:         "Cookies without HttpOnly are readable by JavaScript and exposed to XSS theft.",
		Recommendation: "Set HttpOnly on session cookies.",
	},
	"http_no_redirect": {
		Severity:       SeverityMedium,
		Impact:         "The HTTP version of the site is reachable without redirecting to HTTPS, leaving visitors on an insecure connection.",
		Recommendation: "Redirect all HTTP requests to HTTPS with a 301.",
	},
	"thin_content": {
		Severity:       SeverityMedium,
		Impact:         "Pages under roughly 300 words rarely rank for competitive queries and may be treated as low-value.",
		Recommendation: "Expand the page content to cover its topic in useful depth.",
	},
	"duplicate_content": {
		Severity:       SeverityMedium,
		Impact:         "Multiple URLs serve byte-identical content, splitting ranking signals between duplicates.",
		Recommendation: "Consolidate duplicates with redirects or canonical URLs.",
	},
	"links_without_text": {
		Severity:       SeverityMedium,
		Impact:         "Links without anchor text give no context to screen readers or search engines.",
		Recommendation: "Add descriptive anchor text or an aria-label to every link.",
	},
	"form_field_no_label": {
		Severity:       SeverityMedium,
		Impact:         "Form fields without labels are hard to use with assistive technology and hurt conversion.",
		Recommendation: "Associate a <label> element with each visible form field.",
	},
	"poor_cls": {
		Severity:       SeverityMedium,
		Impact:         "Cumulative Layout Shift above 0.1 means visible content jumps around while loading.",
		Recommendation: "Reserve space for images and embeds with explicit width and height attributes.",
	},
	"poor_fcp": {
		Severity:       SeverityMedium,
		Impact:         "First Contentful Paint above 1.8s leaves visitors staring at a blank page.",
		Recommendation: "Inline critical CSS and reduce render-blocking resources.",
	},

	// LOW - minor issues
	"title_length": {
		Severity:       SeverityLow,
		Impact:         "Titles outside the 30-60 character range are truncated or underused in search results.",
		Recommendation: "Rewrite the title to 30-60 characters with the primary keyword near the front.",
	},
	"description_length": {
		Severity:       SeverityLow,
		Impact:         "Meta descriptions outside 120-160 characters get truncated or leave snippet space unused.",
		Recommendation: "Adjust the description to 120-160 characters.",
	},
	"multiple_h1": {
		Severity:       SeverityLow,
		Impact:         "Multiple H1 headings dilute the page's topical focus.",
		Recommendation: "Keep a single H1 and demote the others to H2.",
	},
	"missing_x_content_type_options": {
		Severity:       SeverityLow,
		Impact:         "Without X-Content-Type-Options: nosniff, browsers may MIME-sniff responses into executable types.",
		Recommendation: "Add X-Content-Type-Options: nosniff.",
	},
	"missing_referrer_policy": {
		Severity:       SeverityLow,
		Impact:         "Without a Referrer-Policy, full URLs (possibly with tokens) leak to third-party sites.",
		Recommendation: "Add Referrer-Policy: strict-origin-when-cross-origin or stricter.",
	},
	"missing_permissions_policy": {
		Severity:       SeverityLow,
		Impact:         "Without a Permissions-Policy, embedded content can request powerful browser features.",
		Recommendation: "Add a Permissions-Policy disabling features the site does not use.",
	},
	"cookie_no_samesite": {
		Severity:       SeverityLow,
		Impact:         "Cookies without SameSite are attached to cross-site requests, enabling CSRF.",
		Recommendation: "Set SameSite=Lax or Strict on cookies.",
	},
	"url_too_long": {
		Severity:       SeverityLow,
		Impact:         "URLs over 100 characters are harder to share and get truncated in listings.",
		Recommendation: "Keep URLs short and descriptive.",
	},
	"url_underscores": {
		Severity:       SeverityLow,
		Impact:         "Search engines treat underscores as word joiners, so keywords in the path are not separated.",
		Recommendation: "Use hyphens instead of underscores in URL paths.",
	},
	"url_many_params": {
		Severity:       SeverityLow,
		Impact:         "URLs with many query parameters look dynamic and duplicate-prone to crawlers.",
		Recommendation: "Minimize query parameters or rewrite them into the path.",
	},
	"robots_txt_missing": {
		Severity:       SeverityLow,
		Impact:         "Without robots.txt, crawlers receive a 404 on every visit and crawl-budget hints are impossible.",
		Recommendation: "Publish a robots.txt, even a permissive one referencing the sitemap.",
	},
	"missing_html_lang": {
		Severity:       SeverityLow,
		Impact:         "Screen readers fall back to their default language when the html element has no lang attribute.",
		Recommendation: "Declare the document language, e.g. <html lang=\"en\">.",
	},
	"title_keyword_unused": {
		Severity:       SeverityLow,
		Impact:         "Body text that never uses the title's terms signals a mismatch between headline and content to search engines.",
		Recommendation: "Use the title's main terms naturally within the page copy.",
	},
	"low_readability": {
		Severity:       SeverityLow,
		Impact:         "Difficult text (low Flesch reading ease) increases bounce rate for general audiences.",
		Recommendation: "Shorten sentences and prefer common words where the audience allows.",
	},
	"few_internal_links": {
		Severity:       SeverityLow,
		Impact:         "Pages with very few internal links are weakly integrated into the site's link graph.",
		Recommendation: "Add contextual internal links to related pages.",
	},
	"image_exif_metadata": {
		Severity:       SeverityLow,
		Impact:         "Published images carry EXIF metadata (device, timestamps, possibly GPS), a privacy leak that also adds page weight.",
		Recommendation: "Strip EXIF metadata from images during the publishing pipeline.",
	},
	"missing_open_graph": {
		Severity:       SeverityLow,
		Impact:         "Without Open Graph tags, shares on social platforms render with arbitrary text and images.",
		Recommendation: "Add og:title, og:description, and og:image tags.",
	},

	// INFO - worth knowing, no action required
	"missing_twitter_card": {
		Severity:       SeverityInfo,
		Impact:         "Twitter Card tags are absent; shared links fall back to Open Graph or plain text.",
		Recommendation: "Add twitter:card tags if Twitter/X traffic matters for the site.",
	},
	"nofollow_links": {
		Severity:       SeverityInfo,
		Impact:         "Internal nofollow links withhold ranking signals from your own pages.",
		Recommendation: "Review whether internal links need rel=\"nofollow\".",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in
// the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess impact.",
	}
}
