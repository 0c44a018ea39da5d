// Package library persists the media library and the transaction history in
// SQLite.
//
// The store opens the database in WAL mode with a busy timeout, applies the
// embedded migrations in filename order, and retries writes that hit
// SQLITE_BUSY with a short exponential backoff. Store also implements the
// workflow recorder contract so every finished transaction lands in the
// history table.
package library
