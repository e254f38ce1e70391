package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/logging"
)

// #region list-decisions
// ListDecisions returns the most recent gate decisions, newest first.
func (s *Store) ListDecisions(limit int) ([]logging.DecisionEntry, error) {
	rows, err := s.db.Query(
		`SELECT continuation_id, gate, token, request_code, decision, reason, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []logging.DecisionEntry
	for rows.Next() {
		var e logging.DecisionEntry
		var contID, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&contID, &e.Gate, &e.Token, &e.RequestCode, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.ContinuationID = contID.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-decisions

// #region subscriptions
// Subscription is the last known recording state of one channel.
type Subscription struct {
	Channel   channel.ID
	OK        bool
	Detail    string
	UpdatedAt time.Time
}

// RecordSubscription implements recording.Journal. Only the latest
// outcome per channel is kept.
func (s *Store) RecordSubscription(ctx context.Context, id channel.ID, ok bool, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (channel, ok, detail, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(channel) DO UPDATE SET
			ok = excluded.ok, detail = excluded.detail, updated_at = excluded.updated_at`,
		string(id), boolToInt(ok), nullIfEmpty(detail), time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("record subscription: %w", err)
	}
	return nil
}

// Subscribed reports whether id has a successful subscription on record.
func (s *Store) Subscribed(ctx context.Context, id channel.ID) (bool, error) {
	var ok int
	err := s.db.QueryRowContext(ctx, `SELECT ok FROM subscriptions WHERE channel = ?`, string(id)).Scan(&ok)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return ok == 1, nil
}

// ListSubscriptions returns every channel's recording state.
func (s *Store) ListSubscriptions() ([]Subscription, error) {
	rows, err := s.db.Query(`SELECT channel, ok, detail, updated_at FROM subscriptions ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var sub Subscription
		var id, updatedStr string
		var ok int
		var detail sql.NullString
		if err := rows.Scan(&id, &ok, &detail, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sub.Channel = channel.ID(id)
		sub.OK = ok == 1
		sub.Detail = detail.String
		sub.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
// #endregion subscriptions
