package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tournx/webaudit/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *AuditDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// sampleReport creates a scored audit report for storage tests.
func sampleReport(site string) *model.AuditReport {
	report := model.NewAuditReport(site, "example.com")
	report.AddFinding(model.NewFinding("no_https", "security", "Site Not Served Over HTTPS", "http://example.com/", site))
	report.AddFinding(model.NewFinding("missing_title", "seo", "Missing Page Title", "", site+"about"))

	report.Scores = &model.Scores{
		Overall:       74,
		SEO:           90,
		Security:      80,
		Content:       100,
		Crawl:         85,
		Performance:   -1,
		Accessibility: -1,
	}

	report.Pages = []*model.Page{
		{
			URL:         site,
			StatusCode:  200,
			ContentType: "text/html",
			Title:       "Home",
			WordCount:   420,
			Hash:        "deadbeef",
		},
	}

	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "webaudit.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		db2, err := Open(dbDir, opts)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db2.Close()
	})
}

// TestPageRecords tests page record storage.
func TestPageRecords(t *testing.T) {
	t.Parallel()

	t.Run("insert and retrieve record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		record := &PageRecord{
			URL:         "https://example.com/about",
			Site:        "https://example.com/",
			StatusCode:  200,
			ContentType: "text/html",
			Title:       "About Us",
			WordCount:   350,
			ContentHash: "abc123",
		}

		id, err := db.InsertPageRecord(ctx, record)
		if err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero record ID")
		}

		got, err := db.GetPageRecord(ctx, record.URL, record.Site)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got == nil {
			t.Fatal("expected record to exist")
		}
		if got.Title != "About Us" {
			t.Errorf("expected title 'About Us', got %q", got.Title)
		}
		if got.WordCount != 350 {
			t.Errorf("expected word count 350, got %d", got.WordCount)
		}
		if got.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
	})

	t.Run("upsert replaces existing record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		record := &PageRecord{
			URL:        "https://example.com/",
			Site:       "https://example.com/",
			StatusCode: 200,
			Title:      "Old Title",
		}
		if _, err := db.InsertPageRecord(ctx, record); err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}

		record.Title = "New Title"
		record.StatusCode = 301
		if _, err := db.InsertPageRecord(ctx, record); err != nil {
			t.Fatalf("failed to upsert record: %v", err)
		}

		got, err := db.GetPageRecord(ctx, record.URL, record.Site)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.Title != "New Title" {
			t.Errorf("expected updated title, got %q", got.Title)
		}
		if got.StatusCode != 301 {
			t.Errorf("expected updated status code, got %d", got.StatusCode)
		}
	})

	t.Run("missing record returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetPageRecord(context.Background(), "https://nowhere.example/", "https://nowhere.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil for missing record")
		}
	})
}

// TestAuditReports tests audit report storage and history.
func TestAuditReports(t *testing.T) {
	t.Parallel()

	t.Run("save and retrieve latest report", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := "https://example.com/"

		if err := db.SaveAuditReport(ctx, sampleReport(site)); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		got, err := db.GetLatestAuditReport(ctx, site)
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if got == nil {
			t.Fatal("expected report to exist")
		}
		if got.SiteURL != site {
			t.Errorf("expected site %q, got %q", site, got.SiteURL)
		}
		if got.Scores == nil || got.Scores.Overall != 74 {
			t.Error("expected scores to round-trip")
		}
		if len(got.Findings()) != 2 {
			t.Errorf("expected 2 findings, got %d", len(got.Findings()))
		}
	})

	t.Run("save records crawled pages", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := "https://example.com/"

		if err := db.SaveAuditReport(ctx, sampleReport(site)); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		page, err := db.GetPageRecord(ctx, site, site)
		if err != nil {
			t.Fatalf("failed to get page record: %v", err)
		}
		if page == nil {
			t.Fatal("expected page record from saved report")
		}
		if page.ContentHash != "deadbeef" {
			t.Errorf("expected content hash, got %q", page.ContentHash)
		}
	})

	t.Run("latest report for unknown site returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetLatestAuditReport(context.Background(), "https://unknown.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil for unknown site")
		}
	})

	t.Run("history returns newest first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := "https://example.com/"

		first := sampleReport(site)
		first.Scores.Overall = 50
		if err := db.SaveAuditReport(ctx, first); err != nil {
			t.Fatalf("failed to save first report: %v", err)
		}

		// SQLite timestamps have second resolution; the ID tiebreak is
		// not guaranteed, so space the saves out.
		time.Sleep(1100 * time.Millisecond)

		second := sampleReport(site)
		second.Scores.Overall = 90
		if err := db.SaveAuditReport(ctx, second); err != nil {
			t.Fatalf("failed to save second report: %v", err)
		}

		history, err := db.GetAuditHistory(ctx, site)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(history))
		}
		if history[0].Scores.Overall != 90 {
			t.Errorf("expected newest report first, got overall %d", history[0].Scores.Overall)
		}
	})

	t.Run("lists audited sites", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, site := range []string{"https://b.example/", "https://a.example/"} {
			if err := db.SaveAuditReport(ctx, sampleReport(site)); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		sites, err := db.ListAuditedSites(ctx)
		if err != nil {
			t.Fatalf("failed to list sites: %v", err)
		}
		if len(sites) != 2 {
			t.Fatalf("expected 2 sites, got %d", len(sites))
		}
		if sites[0] != "https://a.example/" {
			t.Errorf("expected sites sorted, got %v", sites)
		}
	})

	t.Run("metadata avoids loading full reports", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := "https://example.com/"

		if err := db.SaveAuditReport(ctx, sampleReport(site)); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		metas, err := db.GetAuditHistoryWithMetadata(ctx, site)
		if err != nil {
			t.Fatalf("failed to get metadata: %v", err)
		}
		if len(metas) != 1 {
			t.Fatalf("expected 1 metadata entry, got %d", len(metas))
		}

		meta := metas[0]
		if meta.Scores == nil || meta.Scores.Overall != 74 {
			t.Error("expected score summary in metadata")
		}
		if meta.SeveritySummary["critical"] != 1 {
			t.Errorf("expected 1 critical in summary, got %d", meta.SeveritySummary["critical"])
		}
		if meta.SeveritySummary["high"] != 1 {
			t.Errorf("expected 1 high in summary, got %d", meta.SeveritySummary["high"])
		}

		report, err := db.GetAuditReportByID(ctx, meta.ID)
		if err != nil {
			t.Fatalf("failed to get report by ID: %v", err)
		}
		if report == nil || report.SiteURL != site {
			t.Error("expected report retrievable by metadata ID")
		}
	})

	t.Run("report by unknown ID returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		report, err := db.GetAuditReportByID(context.Background(), 9999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report != nil {
			t.Error("expected nil for unknown ID")
		}
	})
}

// TestHasRecentAudit tests the recent-audit check.
func TestHasRecentAudit(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	site := "https://example.com/"

	recent, err := db.HasRecentAudit(ctx, site, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recent {
		t.Error("expected no recent audit before saving")
	}

	if err := db.SaveAuditReport(ctx, sampleReport(site)); err != nil {
		t.Fatalf("failed to save report: %v", err)
	}

	recent, err = db.HasRecentAudit(ctx, site, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recent {
		t.Error("expected recent audit after saving")
	}
}

// TestParseTimestamp tests SQLite timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-08-31 12:30:45", false},
		{"2026-08-31T12:30:45Z", false},
		{"2026-08-31T12:30:45", false},
		{"not a timestamp", true},
		{"", true},
	}

	for _, tt := range tests {
		got := parseTimestamp(tt.input)
		if got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.input, got.IsZero(), tt.zero)
		}
	}
}
