// Package history persists the append-only ingestion history.
//
// Each submission attempt made through the ingest dispatcher, successful or
// not, is appended as a models.HistoryEntry tagged with the CLI session id.
// Listings are scoped to one session and returned newest first.
//
// Two implementations are provided: SQLiteRepository over a dbx.DBTX (either
// *sql.DB or *sql.Tx), and MemoryRepository for runs without a local
// database and for tests.
package history
