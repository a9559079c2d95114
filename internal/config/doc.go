// Package config provides configuration structures and utilities for WebAudit.
// It defines the main configuration options for crawling websites, running
// audit checks, and report generation preferences.
package config
