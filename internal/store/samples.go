package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ikstudios/step-counter/internal/channel"
)

// #region samples
// AddSample records one raw measurement for a channel.
func (s *Store) AddSample(ctx context.Context, id channel.ID, value float64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (channel, value, recorded_at) VALUES (?, ?, ?)`,
		string(id), value, at.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// DailyTotal sums a channel's samples recorded at or after since. The
// boolean is false when no sample falls in the window.
func (s *Store) DailyTotal(ctx context.Context, id channel.ID, since time.Time) (float64, bool, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(value) FROM samples WHERE channel = ? AND recorded_at >= ?`,
		string(id), since.UTC().Format(timeFormat),
	).Scan(&total)
	if err != nil {
		return 0, false, fmt.Errorf("daily total %s: %w", id, err)
	}
	return total.Float64, total.Valid, nil
}
// #endregion samples
