package advisor

import (
	"fmt"

	"github.com/tournx/webaudit/internal/model"
)

// RuleBased derives recommendations directly from the findings.
// It never fails, so the pipeline always has advice to report.
func RuleBased(report *model.AuditReport) *model.Recommendations {
	recs := &model.Recommendations{Source: "rules"}

	found := findingIndex(report)

	// Critical: problems that block security or bury the site entirely.
	if f, ok := found["no_https"]; ok {
		recs.Critical = append(recs.Critical, recommend(f,
			"Install a TLS certificate and serve the site over HTTPS.",
			"Secure connection, no browser warnings, better rankings"))
	}
	if f, ok := found["ssl_expired"]; ok {
		recs.Critical = append(recs.Critical, recommend(f,
			"Renew the certificate immediately and automate renewals.",
			"Site reachable again without browser warnings"))
	}
	if f, ok := found["robots_disallow_all"]; ok {
		recs.Critical = append(recs.Critical, recommend(f,
			"Remove the blanket Disallow rule from robots.txt.",
			"Search engines can index the site again"))
	}
	if f, ok := found["meta_noindex"]; ok {
		recs.Critical = append(recs.Critical, recommend(f,
			"Remove the noindex directive from pages that should rank.",
			"Affected pages return to search results"))
	}
	if f, ok := found["slow_performance"]; ok {
		recs.Critical = append(recs.Critical, model.Recommendation{
			Issue:               "Critical Performance Issues",
			Impact:              "High",
			Effort:              "Medium",
			Description:         "Optimize images, enable compression, implement lazy loading, and minimize JavaScript. " + f.Recommendation,
			ExpectedImprovement: "40-60% faster page load time",
		})
	}
	if f, ok := found["poor_lcp"]; ok {
		recs.Critical = append(recs.Critical, recommend(f,
			"Optimize server response time, use a CDN, compress hero images, and remove render-blocking resources.",
			"LCP under 2.5 seconds"))
	}

	// High priority: measurable ranking and accessibility damage.
	if f, ok := found["image_missing_alt"]; ok {
		recs.HighPriority = append(recs.HighPriority, model.Recommendation{
			Issue:               fmt.Sprintf("Images Missing Alt Text (%s)", f.Value),
			Impact:              "Medium",
			Effort:              "Low",
			Description:         "Add descriptive alt text to all content images.",
			ExpectedImprovement: "Improved SEO and accessibility compliance",
		})
	}
	if f, ok := found["missing_structured_data"]; ok {
		recs.HighPriority = append(recs.HighPriority, recommend(f,
			"Implement Schema.org JSON-LD markup for rich snippets.",
			"Rich snippets and better click-through in search results"))
	}
	if hasAny(found, "missing_csp", "missing_hsts", "missing_x_frame_options") {
		recs.HighPriority = append(recs.HighPriority, model.Recommendation{
			Issue:               "Missing Security Headers",
			Impact:              "Medium",
			Effort:              "Low",
			Description:         "Add Content-Security-Policy, Strict-Transport-Security, and X-Frame-Options headers.",
			ExpectedImprovement: "Better protection against XSS and clickjacking",
		})
	}
	if f, ok := found["missing_title"]; ok {
		recs.HighPriority = append(recs.HighPriority, recommend(f,
			"Write a unique 30-60 character title for every page.",
			"Pages become clickable results instead of bare URLs"))
	}

	// Medium priority: user experience and presentation.
	if f, ok := found["poor_cls"]; ok {
		recs.MediumPriority = append(recs.MediumPriority, recommend(f,
			"Set explicit dimensions on images and embeds; avoid inserting content above existing content.",
			"Stable page layout while loading"))
	}
	if f, ok := found["missing_open_graph"]; ok {
		recs.MediumPriority = append(recs.MediumPriority, recommend(f,
			"Add Open Graph meta tags for social sharing.",
			"Proper preview cards when shared on social media"))
	}
	if f, ok := found["thin_content"]; ok {
		recs.MediumPriority = append(recs.MediumPriority, recommend(f,
			"Expand thin pages with substantive content or merge them.",
			"Stronger topical authority and fewer low-value pages"))
	}

	// Quick wins apply to almost every site.
	recs.QuickWins = append(recs.QuickWins,
		model.Recommendation{
			Issue:               "Enable Browser Caching",
			Impact:              "Medium",
			Effort:              "Low",
			Description:         "Add Cache-Control headers for static resources.",
			ExpectedImprovement: "Faster repeat visits, reduced server load",
		},
		model.Recommendation{
			Issue:               "Enable Compression",
			Impact:              "Medium",
			Effort:              "Low",
			Description:         "Serve text resources with gzip or brotli compression.",
			ExpectedImprovement: "60-80% reduction in transfer size",
		},
	)
	if f, ok := found["missing_meta_description"]; ok {
		recs.QuickWins = append(recs.QuickWins, recommend(f,
			"Write 120-160 character meta descriptions for key pages.",
			"Better snippets and click-through rates"))
	}

	return recs
}

// findingIndex maps finding types to one representative finding each.
func findingIndex(report *model.AuditReport) map[string]model.Finding {
	index := make(map[string]model.Finding)
	if report == nil || report.SimpleReport == nil {
		return index
	}
	for _, f := range report.SimpleReport.Findings {
		if _, ok := index[f.Type]; !ok {
			index[f.Type] = f
		}
	}
	return index
}

// hasAny reports whether any of the types appear in the index.
func hasAny(index map[string]model.Finding, types ...string) bool {
	for _, t := range types {
		if _, ok := index[t]; ok {
			return true
		}
	}
	return false
}

// recommend builds a Recommendation from a finding with a custom fix
// description.
func recommend(f model.Finding, description, improvement string) model.Recommendation {
	impact := "Medium"
	switch f.Severity {
	case model.SeverityCritical, model.SeverityHigh:
		impact = "High"
	case model.SeverityLow, model.SeverityInfo:
		impact = "Low"
	}

	return model.Recommendation{
		Issue:               f.Title,
		Impact:              impact,
		Effort:              "Low",
		Description:         description,
		ExpectedImprovement: improvement,
	}
}
