package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/database"
	"github.com/tournx/webaudit/internal/model"
)

// TestNewAuditCmd tests the audit command creation.
func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "audit [url]" {
			t.Errorf("expected use 'audit [url]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has max-pages flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-pages")
		if flag == nil {
			t.Fatal("expected max-pages flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has report format flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "html"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has pagespeed flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("pagespeed") == nil {
			t.Fatal("expected pagespeed flag")
		}
	})

	t.Run("has no-ai flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("no-ai") == nil {
			t.Fatal("expected no-ai flag")
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have save flag (always saves)", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("save") != nil {
			t.Error("save flag should not exist (database saving is always enabled)")
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") != nil {
			t.Error("db-dir flag should not exist (always uses XDG data directory)")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewAuditCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		auditCmd, _, err := root.Find([]string{"audit"})
		if err != nil {
			t.Fatalf("failed to find audit command: %v", err)
		}

		if !getVerboseFlag(auditCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "https://example.com" {
			t.Errorf("expected targets [https://example.com], got %v", cfg.Targets)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("expected MaxPages %d, got %d", config.DefaultMaxPages, cfg.MaxPages)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
	})

	t.Run("builds config with custom max-pages", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("max-pages", "50")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxPages != 50 {
			t.Errorf("expected MaxPages 50, got %d", cfg.MaxPages)
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("batch", "5")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 5 {
			t.Errorf("expected BatchSize 5, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with HTML flag", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("html", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.HTMLReport {
			t.Error("expected HTMLReport to be true")
		}
	})

	t.Run("builds config with pagespeed flag", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("pagespeed", "true")
		_ = cmd.Flags().Set("strategy", "desktop")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.PageSpeed {
			t.Error("expected PageSpeed to be true")
		}
		if cfg.PageSpeedStrategy != "desktop" {
			t.Errorf("expected strategy 'desktop', got %q", cfg.PageSpeedStrategy)
		}
	})

	t.Run("builds config with no-ai flag", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("no-ai", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.NoAI {
			t.Error("expected NoAI to be true")
		}
	})

	t.Run("builds config with multiple targets", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"https://a.example", "https://b.example", "https://c.example"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 3 {
			t.Errorf("expected 3 targets, got %d", len(cfg.Targets))
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "webaudit.yaml")

		content := []byte(`
defaults:
  maxPages: 10
sites:
  example.com:
    cookie: session=xyz
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		if cfg.SiteConfigs.Defaults.MaxPages != 10 {
			t.Errorf("expected default maxPages 10, got %d", cfg.SiteConfigs.Defaults.MaxPages)
		}
		if cfg.SiteConfigs.Sites["example.com"].Cookie != "session=xyz" {
			t.Errorf("expected site cookie 'session=xyz', got %q", cfg.SiteConfigs.Sites["example.com"].Cookie)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", "/nonexistent/webaudit.yaml")
		_, err := buildConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})
}

// TestNormalizeTarget tests target URL normalization.
func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "full https URL", input: "https://example.com", want: "https://example.com"},
		{name: "full http URL", input: "http://example.com/path", want: "http://example.com/path"},
		{name: "bare hostname gets https", input: "example.com", want: "https://example.com"},
		{name: "hostname with path", input: "example.com/blog", want: "https://example.com/blog"},
		{name: "surrounding whitespace", input: "  example.com  ", want: "https://example.com"},
		{name: "empty string", input: "", wantErr: true},
		{name: "unsupported scheme", input: "ftp://example.com", wantErr: true},
		{name: "missing hostname", input: "https://", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeTarget(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeTarget(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeTarget(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("normalizeTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestHostOfTarget tests hostname extraction from target URLs.
func TestHostOfTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com", "example.com"},
		{"https://example.com:8443/path", "example.com"},
		{"http://sub.example.org/a/b", "sub.example.org"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := hostOfTarget(tt.input); got != tt.want {
				t.Errorf("hostOfTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestOutputReport tests the report output functionality.
func TestOutputReport(t *testing.T) {
	t.Run("outputs JSON report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		auditReport := model.NewAuditReport("https://example.com", "example.com")

		err := outputReport(cfg, auditReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(content, &result); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}

		if result["site_url"] != "https://example.com" {
			t.Errorf("expected site_url 'https://example.com', got %v", result["site_url"])
		}
	})

	t.Run("outputs HTML report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.html")

		cfg := &config.Config{
			HTMLReport: true,
			ReportFile: outputPath,
		}

		auditReport := model.NewAuditReport("https://example.com", "example.com")

		err := outputReport(cfg, auditReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !bytes.Contains(content, []byte("<!DOCTYPE html>")) {
			t.Error("expected HTML report content")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "subdir", "nested", "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		auditReport := model.NewAuditReport("https://example.com", "example.com")

		err := outputReport(cfg, auditReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created in nested directory")
		}
	})

	t.Run("outputs text report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.txt")

		cfg := &config.Config{
			ReportFile: outputPath,
		}

		auditReport := model.NewAuditReport("https://example.com", "example.com")

		err := outputReport(cfg, auditReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !bytes.Contains(content, []byte("https://example.com")) {
			t.Error("expected report to contain site URL")
		}
	})

	t.Run("initializes SimpleReport if nil", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.txt")

		cfg := &config.Config{
			ReportFile: outputPath,
		}

		auditReport := model.NewAuditReport("https://example.com", "example.com")
		auditReport.SimpleReport = nil

		err := outputReport(cfg, auditReport)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if auditReport.SimpleReport == nil {
			t.Error("expected SimpleReport to be initialized")
		}
	})
}

// TestSaveAuditReport tests the saveAuditReport function.
func TestSaveAuditReport(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := context.Background()

	t.Run("returns nil when db is nil", func(t *testing.T) {
		t.Parallel()

		auditReport := model.NewAuditReport("https://example.com", "example.com")
		if err := saveAuditReport(ctx, nil, auditReport, logger); err != nil {
			t.Errorf("expected nil error when db is nil, got %v", err)
		}
	})

	t.Run("saves report to database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		auditReport := model.NewAuditReport("https://save-test.example", "save-test.example")

		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			t.Fatalf("saveAuditReport() error = %v", err)
		}

		saved, err := db.GetLatestAuditReport(ctx, "https://save-test.example")
		if err != nil {
			t.Fatalf("failed to get saved report: %v", err)
		}
		if saved == nil {
			t.Fatal("expected report to be saved")
		}
		if saved.SiteURL != "https://save-test.example" {
			t.Errorf("expected site URL 'https://save-test.example', got %q", saved.SiteURL)
		}
	})

	t.Run("initializes SimpleReport before saving", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		auditReport := model.NewAuditReport("https://simple.example", "simple.example")
		auditReport.SimpleReport = nil

		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			t.Fatalf("saveAuditReport() error = %v", err)
		}

		if auditReport.SimpleReport == nil {
			t.Error("expected SimpleReport to be initialized")
		}
	})
}

// TestRunAuditNoTargets tests that runAudit returns error when no targets provided.
func TestRunAuditNoTargets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.NewConfig()
	cfg.Targets = []string{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	err := runAudit(ctx, cfg, logger)
	if err == nil {
		t.Error("expected error for no targets")
	}
}

// TestRunAuditInvalidTarget tests that runAudit returns error for invalid target URLs.
func TestRunAuditInvalidTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.NewConfig()
	cfg.Targets = []string{"ftp://example.com"}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	err := runAudit(ctx, cfg, logger)
	if err == nil {
		t.Error("expected error for invalid target URL")
	}
	if !strings.Contains(err.Error(), "invalid target URL") {
		t.Errorf("unexpected error: %v", err)
	}
}
