// Package analyzer provides audit checks for crawled websites.
//
// # Purpose
//
// This package analyzes crawled pages and live site characteristics to
// identify SEO, security, content, and usability problems, reported as
// severity-ranked findings.
//
// # Design Philosophy
//
// The analyzer package follows a modular analyzer pattern where each type of
// check is implemented as a separate Analyzer. This design was chosen because:
//  1. Each check type has unique logic and data requirements
//  2. Enables selective scanning based on configuration
//  3. Makes it easy to add new checks without modifying existing code
//  4. Simplifies testing of individual analysis components
//
// # Analyzer Categories
//
// Analyzers are grouped into categories based on what they check:
//
// ## SEO
//   - Title and meta description presence and length
//   - Heading structure, canonical URLs, structured data
//   - Open Graph and Twitter Card tags, meta robots directives
//
// ## Security
//   - TLS certificate validity and expiry
//   - Security response headers (HSTS, CSP, X-Frame-Options, ...)
//   - Cookie flags, CORS policy, mixed content
//   - Server version disclosure
//
// ## Content
//   - Thin content detection, readability scoring
//   - Title keyword usage in body text
//
// ## UX / Accessibility
//   - Viewport configuration, image alt text
//   - Form labels, empty link anchors, internal linking
//
// ## Technical
//   - robots.txt and sitemap availability
//   - URL structure problems
//   - EXIF metadata in served images
//
// # Usage
//
//	a := analyzer.NewAnalyzer()
//	findings, err := a.Analyze(ctx, data)
//
// # Severity Levels
//
// Findings are assigned severity levels based on impact:
//   - Critical: actively harmful (expired certificate, site-wide noindex)
//   - High: significant ranking or security exposure (missing CSP, no title)
//   - Medium: worth fixing soon (missing canonical, thin content)
//   - Low: polish items (title length, URL underscores)
//   - Info: observations with no required action
package analyzer
