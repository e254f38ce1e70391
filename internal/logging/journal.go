package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a gate decision to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (continuation_id, gate, token, request_code, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.ContinuationID),
		entry.Gate,
		entry.Token,
		entry.RequestCode,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}
// #endregion log-decision

// #region db-journal
// DBJournal records gate decisions into a SQLite database that already
// carries the decision_log table.
type DBJournal struct {
	DB *sql.DB
}

// Record implements the gate journal.
func (j DBJournal) Record(entry DecisionEntry) error {
	return LogDecision(j.DB, entry)
}
// #endregion db-journal

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
