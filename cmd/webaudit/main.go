// Package main provides the entry point for the webaudit CLI.
//
// webaudit crawls a website and audits it for SEO, security, content,
// and user experience issues, producing scored reports with prioritized
// recommendations.
//
// Usage:
//
//	webaudit audit https://example.com
//	webaudit compare https://example.com
//
// See --help for all available options.
package main

// main is the entry point for webaudit.
func main() {
	Execute()
}
