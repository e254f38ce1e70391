package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	ContinuationID string
	Gate           string // "permission" | "authorization" | "resumer"
	Token          string
	RequestCode    int
	Decision       string // "proceed" | "suspend" | "reject" | "stall"
	Reason         string
	CreatedAt      time.Time
}
// #endregion decision-entry
