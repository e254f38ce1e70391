package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/logging"
)

// #region options
type options struct {
	registry Registry
	journal  Journal
	prompter Prompter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a gate.
type Option func(*options)

// WithRegistry sets where suspended continuations are held. Gates
// sharing one registry never collide: keys include the gate kind.
func WithRegistry(r Registry) Option { return func(o *options) { o.registry = r } }

// WithJournal records every decision.
func WithJournal(j Journal) Option { return func(o *options) { o.journal = j } }

// WithPrompter sets the UI affordance surface.
func WithPrompter(p Prompter) Option { return func(o *options) { o.prompter = p } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock overrides the clock for deterministic testing.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func buildOptions(config GateConfig, component string, opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewMemoryRegistry(config.ContinuationTTL)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", component)
	return o
}

// #endregion options

// #region helpers
func (o options) newContinuation(kind action.GateKind, token action.Token, code action.RequestCode) action.Continuation {
	return action.Continuation{
		ID:       uuid.New().String(),
		Gate:     kind,
		Token:    token,
		Code:     code,
		IssuedAt: o.now().UTC(),
	}
}

// record journals d. Journal failures are logged and never change the decision.
func (o options) record(ctx context.Context, d Decision) {
	if o.journal == nil {
		return
	}
	code, _ := d.Token.RequestCode()
	reason := d.Reason
	if d.Err != nil && reason == "" {
		reason = d.Err.Error()
	}
	err := o.journal.Record(logging.DecisionEntry{
		ContinuationID: d.ContinuationID,
		Gate:           string(d.Gate),
		Token:          string(d.Token),
		RequestCode:    int(code),
		Decision:       string(d.Action),
		Reason:         reason,
		CreatedAt:      o.now().UTC(),
	})
	if err != nil {
		o.logger.WarnContext(ctx, "failed to journal gate decision", "error", err)
	}
}

// #endregion helpers
