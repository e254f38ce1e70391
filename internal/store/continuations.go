package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/gate"
)

// #region codec
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeContinuation serializes c deterministically. IssuedAt travels in
// its own column and is not part of the payload.
func EncodeContinuation(c action.Continuation) ([]byte, error) {
	return encMode.Marshal(c)
}

// DecodeContinuation reverses EncodeContinuation.
func DecodeContinuation(data []byte) (action.Continuation, error) {
	var c action.Continuation
	if err := decMode.Unmarshal(data, &c); err != nil {
		return action.Continuation{}, fmt.Errorf("decode continuation: %w", err)
	}
	return c, nil
}
// #endregion codec

// #region continuation-store
// ContinuationStore is a gate.Registry backed by the continuations
// table, so a suspended action survives a host restart between the
// request and its result.
type ContinuationStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Continuations returns a registry over s. A pending continuation older
// than ttl may be replaced; a zero ttl never expires.
func (s *Store) Continuations(ttl time.Duration) *ContinuationStore {
	return &ContinuationStore{db: s.db, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (c *ContinuationStore) WithClock(now func() time.Time) *ContinuationStore {
	c.now = now
	return c
}

// Register stores cont unless a live continuation already holds its code.
func (c *ContinuationStore) Register(cont action.Continuation) error {
	payload, err := EncodeContinuation(cont)
	if err != nil {
		return fmt.Errorf("encode continuation: %w", err)
	}
	issued := cont.IssuedAt
	if issued.IsZero() {
		issued = c.now()
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	prev, err := loadContinuation(tx, cont.Gate, cont.Code)
	switch {
	case err == nil:
		if !gate.Expired(prev, c.ttl, c.now()) {
			return fmt.Errorf("register %s code %d: %w", cont.Gate, cont.Code, gate.ErrCorrelationInUse)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO continuations (gate, request_code, continuation_id, payload, issued_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(gate, request_code) DO UPDATE SET
			continuation_id = excluded.continuation_id,
			payload = excluded.payload,
			issued_at = excluded.issued_at`,
		string(cont.Gate), int(cont.Code), cont.ID, payload, issued.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert continuation: %w", err)
	}
	return tx.Commit()
}

// Consume removes and returns the continuation for (g, code).
func (c *ContinuationStore) Consume(g action.GateKind, code action.RequestCode) (action.Continuation, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return action.Continuation{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cont, err := loadContinuation(tx, g, code)
	if errors.Is(err, sql.ErrNoRows) {
		return action.Continuation{}, fmt.Errorf("consume %s code %d: %w", g, code, gate.ErrNoPendingContinuation)
	}
	if err != nil {
		return action.Continuation{}, err
	}

	if _, err := tx.Exec(
		`DELETE FROM continuations WHERE gate = ? AND request_code = ?`, string(g), int(code),
	); err != nil {
		return action.Continuation{}, fmt.Errorf("delete continuation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return action.Continuation{}, fmt.Errorf("commit: %w", err)
	}
	return cont, nil
}

// Pending lists every stored continuation, oldest first.
func (c *ContinuationStore) Pending() ([]action.Continuation, error) {
	rows, err := c.db.Query(`SELECT payload, issued_at FROM continuations ORDER BY issued_at`)
	if err != nil {
		return nil, fmt.Errorf("list continuations: %w", err)
	}
	defer rows.Close()

	var out []action.Continuation
	for rows.Next() {
		var payload []byte
		var issuedStr string
		if err := rows.Scan(&payload, &issuedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		cont, err := DecodeContinuation(payload)
		if err != nil {
			return nil, err
		}
		cont.IssuedAt, _ = time.Parse(time.RFC3339Nano, issuedStr)
		out = append(out, cont)
	}
	return out, rows.Err()
}

func loadContinuation(tx *sql.Tx, g action.GateKind, code action.RequestCode) (action.Continuation, error) {
	var payload []byte
	var issuedStr string
	err := tx.QueryRow(
		`SELECT payload, issued_at FROM continuations WHERE gate = ? AND request_code = ?`,
		string(g), int(code),
	).Scan(&payload, &issuedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return action.Continuation{}, err
		}
		return action.Continuation{}, fmt.Errorf("load continuation: %w", err)
	}
	cont, err := DecodeContinuation(payload)
	if err != nil {
		return action.Continuation{}, err
	}
	cont.IssuedAt, _ = time.Parse(time.RFC3339Nano, issuedStr)
	return cont, nil
}
// #endregion continuation-store
