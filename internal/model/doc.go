// Package model defines the core data structures used throughout webaudit.
//
// This package contains the following main types:
//   - Page: Represents a fetched web page with parsed content
//   - PageResult: Per-page audit signals produced by the page analyzer
//   - CrawlReport: Aggregated site-wide findings for one crawl run
//   - AuditReport: The main audit result structure
//   - SimpleReport: A summarized, human-readable report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, analyzer, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
