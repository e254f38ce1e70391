package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/report"
)

// #region save-report
// SaveReport implements report.Recorder.
func (s *Store) SaveReport(ctx context.Context, r report.Report) error {
	readings := r.Readings
	if readings == nil {
		readings = []channel.Reading{}
	}
	missing := r.Missing
	if missing == nil {
		missing = []channel.ID{}
	}
	readingsJSON, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("marshal readings: %w", err)
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return fmt.Errorf("marshal missing: %w", err)
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (report_id, text, readings_json, missing_json, mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Text, string(readingsJSON), string(missingJSON), string(r.Mode),
		created.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}
// #endregion save-report

// #region list-reports
// ListReports returns the most recent reports, newest first.
func (s *Store) ListReports(limit int) ([]report.Report, error) {
	rows, err := s.db.Query(
		`SELECT report_id, text, readings_json, missing_json, mode, created_at
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		var r report.Report
		var readingsJSON, missingJSON, mode, createdStr string
		if err := rows.Scan(&r.ID, &r.Text, &readingsJSON, &missingJSON, &mode, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(readingsJSON), &r.Readings); err != nil {
			return nil, fmt.Errorf("unmarshal readings: %w", err)
		}
		if err := json.Unmarshal([]byte(missingJSON), &r.Missing); err != nil {
			return nil, fmt.Errorf("unmarshal missing: %w", err)
		}
		r.Mode = report.Mode(mode)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, r)
	}
	return out, rows.Err()
}
// #endregion list-reports
