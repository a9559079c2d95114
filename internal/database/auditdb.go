package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tournx/webaudit/internal/model"
)

// AuditDB provides SQLite-based storage for crawl data and audit reports.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all audited sites
// rather than one file per site. This keeps history queries across sites
// trivial and simplifies backup/restore.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, "webaudit.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw refuses to create new files,
	// mode=rwc creates them.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	-- Page records store individual page fetches
	CREATE TABLE IF NOT EXISTS page_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		word_count INTEGER,
		content_hash TEXT,
		UNIQUE(url, site)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON page_results(url);
	CREATE INDEX IF NOT EXISTS idx_pages_site ON page_results(site);
	CREATE INDEX IF NOT EXISTS idx_pages_timestamp ON page_results(timestamp);

	-- Audit reports store complete audit results as JSON
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		score_summary TEXT,
		severity_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_site ON audit_reports(site);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord represents a stored page fetch.
type PageRecord struct {
	ID          int64
	URL         string
	Site        string
	Timestamp   time.Time
	StatusCode  int
	ContentType string
	Title       string
	WordCount   int
	ContentHash string
}

// InsertPageRecord inserts or updates a page record.
// Uses UPSERT to handle duplicates (same URL + site).
func (adb *AuditDB) InsertPageRecord(ctx context.Context, record *PageRecord) (int64, error) {
	query := `
	INSERT INTO page_results (url, site, status_code, content_type, title, word_count, content_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, site) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		word_count = excluded.word_count,
		content_hash = excluded.content_hash,
		timestamp = CURRENT_TIMESTAMP
	`

	result, err := adb.db.ExecContext(ctx, query,
		record.URL,
		record.Site,
		record.StatusCode,
		record.ContentType,
		record.Title,
		record.WordCount,
		record.ContentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page record: %w", err)
	}

	return result.LastInsertId()
}

// GetPageRecord retrieves a page record by URL and site.
// Returns nil when no record exists.
func (adb *AuditDB) GetPageRecord(ctx context.Context, url, site string) (*PageRecord, error) {
	query := `
	SELECT id, url, site, timestamp, status_code, content_type, title, word_count, content_hash
	FROM page_results
	WHERE url = ? AND site = ?
	`

	var record PageRecord
	var timestamp string

	err := adb.db.QueryRowContext(ctx, query, url, site).Scan(
		&record.ID,
		&record.URL,
		&record.Site,
		&timestamp,
		&record.StatusCode,
		&record.ContentType,
		&record.Title,
		&record.WordCount,
		&record.ContentHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page record: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)
	return &record, nil
}

// HasRecentAudit checks if a site was audited within the specified duration.
func (adb *AuditDB) HasRecentAudit(ctx context.Context, site string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM audit_reports
	WHERE site = ? AND timestamp > datetime('now', ?)
	`

	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	if err := adb.db.QueryRowContext(ctx, query, site, modifier).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check recent audit: %w", err)
	}

	return count > 0, nil
}

// SaveAuditReport saves a complete audit report as JSON, along with
// denormalized score and severity summaries for cheap history queries.
// Crawled pages are recorded in page_results as a side effect.
func (adb *AuditDB) SaveAuditReport(ctx context.Context, report *model.AuditReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	var scoreJSON []byte
	if report.Scores != nil {
		scoreJSON, _ = json.Marshal(report.Scores) //nolint:errcheck,errchkjson // Scores is a flat struct; Marshal won't fail
	}

	severitySummary := map[string]int{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"info":     0,
	}
	if report.SimpleReport != nil {
		severitySummary["critical"] = report.SimpleReport.CriticalCount
		severitySummary["high"] = report.SimpleReport.HighCount
		severitySummary["medium"] = report.SimpleReport.MediumCount
		severitySummary["low"] = report.SimpleReport.LowCount
		severitySummary["info"] = report.SimpleReport.InfoCount
	}
	severityJSON, _ := json.Marshal(severitySummary) //nolint:errcheck,errchkjson // simple map; Marshal won't fail

	query := `
	INSERT INTO audit_reports (site, report_json, score_summary, severity_summary)
	VALUES (?, ?, ?, ?)
	`

	if _, err := adb.db.ExecContext(ctx, query,
		report.SiteURL,
		string(reportJSON),
		string(scoreJSON),
		string(severityJSON),
	); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	for _, page := range report.Pages {
		record := &PageRecord{
			URL:         page.URL,
			Site:        report.SiteURL,
			StatusCode:  page.StatusCode,
			ContentType: page.ContentType,
			Title:       page.Title,
			WordCount:   page.WordCount,
			ContentHash: page.Hash,
		}
		if _, err := adb.InsertPageRecord(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

// GetLatestAuditReport retrieves the most recent audit report for a site.
// Returns nil when the site has never been audited.
func (adb *AuditDB) GetLatestAuditReport(ctx context.Context, site string) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListAuditedSites returns all sites with at least one stored audit.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM audit_reports
	ORDER BY site
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetAuditHistory retrieves all audit reports for a site, newest first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, site string) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.AuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// AuditMetadata contains summary information about a stored audit.
// This is used for displaying audit history without loading full reports.
type AuditMetadata struct {
	// ID is the unique identifier of the audit report in the database.
	ID int64

	// Site is the audited seed URL.
	Site string

	// Timestamp is when the audit was performed.
	Timestamp time.Time

	// Scores contains the category scores recorded for the audit.
	// Nil when the audit completed without a scoring step.
	Scores *model.Scores

	// SeveritySummary contains counts of findings by severity level.
	SeveritySummary map[string]int
}

// GetAuditHistoryWithMetadata retrieves audit metadata for a site.
// This is more efficient than GetAuditHistory when only metadata is needed.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, site string) ([]AuditMetadata, error) {
	query := `
	SELECT id, site, timestamp, score_summary, severity_summary
	FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditMetadata
	for rows.Next() {
		var meta AuditMetadata
		var timestamp string
		var scoreJSON, severityJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Site, &timestamp, &scoreJSON, &severityJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if scoreJSON.Valid && scoreJSON.String != "" {
			var scores model.Scores
			if err := json.Unmarshal([]byte(scoreJSON.String), &scores); err == nil {
				meta.Scores = &scores
			}
		}

		meta.SeveritySummary = make(map[string]int)
		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &meta.SeveritySummary); err != nil {
				meta.SeveritySummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAuditReportByID retrieves an audit report by its database ID.
// Returns nil when no report has that ID.
func (adb *AuditDB) GetAuditReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE id = ?
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
