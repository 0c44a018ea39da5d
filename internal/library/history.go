package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"banshee/internal/services"
	"banshee/internal/transaction"
)

const recordColumns = "seq, transaction_id, category, name, state, status, error_kind, error_message, progress_current, progress_total, started_at, finished_at"

const defaultHistoryLimit = 20

// RecordTransaction appends rec to the history table.
func (s *Store) RecordTransaction(ctx context.Context, rec Record) error {
	if rec.TransactionID == "" {
		return errors.New("transaction id required")
	}
	if !rec.State.Terminal() {
		return fmt.Errorf("record transaction %s: state %q is not terminal", rec.TransactionID, rec.State)
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	if _, err := s.execWithRetry(ctx, `
INSERT INTO transactions (transaction_id, category, name, state, status, error_kind, error_message, progress_current, progress_total, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TransactionID, string(rec.Category), rec.Name, string(rec.State), rec.Status,
		rec.ErrorKind, rec.ErrorMessage, rec.Current, rec.Total,
		nullableTime(rec.StartedAt), formatTime(rec.FinishedAt),
	); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// RecordOutcome stores a finished transaction. It satisfies the workflow
// recorder contract.
func (s *Store) RecordOutcome(ctx context.Context, snapshot transaction.Snapshot, outcome transaction.Outcome) error {
	rec := Record{
		TransactionID: snapshot.ID,
		Category:      snapshot.Category,
		Name:          snapshot.Name,
		State:         outcome.State,
		Status:        snapshot.Status,
		Current:       snapshot.Current,
		Total:         snapshot.Total,
		StartedAt:     outcome.Started,
		FinishedAt:    outcome.Finished,
	}
	if outcome.Err != nil {
		rec.ErrorKind = services.Kind(outcome.Err)
		rec.ErrorMessage = outcome.Err.Error()
	}
	return s.RecordTransaction(ctx, rec)
}

// RecentTransactions returns up to limit history rows, newest first.
// Non-positive limits use a default of 20.
func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+recordColumns+" FROM transactions ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec         Record
			category    string
			state       string
			startedRaw  sql.NullString
			finishedRaw sql.NullString
		)
		if err := rows.Scan(
			&rec.Seq,
			&rec.TransactionID,
			&category,
			&rec.Name,
			&state,
			&rec.Status,
			&rec.ErrorKind,
			&rec.ErrorMessage,
			&rec.Current,
			&rec.Total,
			&startedRaw,
			&finishedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.Category = transaction.Category(category)
		if parsed, ok := transaction.ParseState(state); ok {
			rec.State = parsed
		}
		rec.StartedAt = parseTime(startedRaw)
		rec.FinishedAt = parseTime(finishedRaw)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// PruneHistory keeps the newest keep rows and deletes the rest, returning the
// number removed.
func (s *Store) PruneHistory(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		"DELETE FROM transactions WHERE seq NOT IN (SELECT seq FROM transactions ORDER BY seq DESC LIMIT ?)", keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}
