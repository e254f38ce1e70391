package action

import (
	"context"
	"fmt"
	"log/slog"
)

// #region handler

// Handler runs one deferred action.
type Handler interface {
	Run(ctx context.Context)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context)

// Run calls f(ctx).
func (f HandlerFunc) Run(ctx context.Context) { f(ctx) }

// #endregion

// #region resumer

// Resumer maps a resumed token onto the handler that performs it.
type Resumer struct {
	handlers map[Token]Handler
	logger   *slog.Logger
}

// NewResumer wires the subscribe and read-report handlers.
func NewResumer(subscribe, readReport Handler, logger *slog.Logger) *Resumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resumer{
		handlers: map[Token]Handler{
			Subscribe:  subscribe,
			ReadReport: readReport,
		},
		logger: logger.With("component", "resumer"),
	}
}

// Dispatch runs the handler for t. An undefined token is a contract
// violation and is returned wrapped in ErrUnrecognizedCorrelationID.
func (r *Resumer) Dispatch(ctx context.Context, t Token) error {
	h, ok := r.handlers[t]
	if !ok || h == nil {
		err := fmt.Errorf("dispatch %q: %w", string(t), ErrUnrecognizedCorrelationID)
		r.logger.ErrorContext(ctx, "cannot resume deferred action", "token", string(t), "error", err)
		return err
	}
	r.logger.InfoContext(ctx, "resuming deferred action", "token", string(t))
	h.Run(ctx)
	return nil
}

// #endregion
