// Package database provides SQLite-based storage for webaudit.
//
// This package implements the AuditDB, which stores:
//   - Crawled page records with metadata
//   - Complete audit reports for historical comparison
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Reports are stored as JSON blobs with a denormalized score summary
// column, so history listings never deserialize full reports.
package database
