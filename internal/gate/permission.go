package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikstudios/step-counter/internal/action"
)

// #region permission-gate
// PermissionGate runs a token through the runtime permission check
// before handing it to the authorization step.
type PermissionGate struct {
	config   GateConfig
	provider PermissionProvider
	next     Authorizer
	options
}

// NewPermissionGate creates a permission gate forwarding to next.
func NewPermissionGate(config GateConfig, provider PermissionProvider, next Authorizer, opts ...Option) *PermissionGate {
	return &PermissionGate{
		config:   config,
		provider: provider,
		next:     next,
		options:  buildOptions(config, "permission_gate", opts),
	}
}

// State re-queries the permission; versions that do not gate it count as granted.
func (g *PermissionGate) State() PermissionState {
	if !g.provider.Required(g.config.Permission) {
		return Granted
	}
	return g.provider.CurrentState(g.config.Permission)
}

// #endregion permission-gate

// #region check-and-run
// CheckAndRun forwards token to the authorization step when the
// permission is granted, otherwise issues one permission request
// carrying the token's request code and suspends.
func (g *PermissionGate) CheckAndRun(ctx context.Context, token action.Token) Decision {
	code, err := token.RequestCode()
	if err != nil {
		g.logger.ErrorContext(ctx, "refusing to gate unknown action", "token", string(token), "error", err)
		return Decision{Gate: action.GatePermission, Action: ActionReject, Token: token, Err: err}
	}

	if g.State() == Granted {
		return g.next.EnsureAuthorized(ctx, token)
	}

	// The continuation is registered only when a platform request is
	// actually issued. A dismissed rationale leaves nothing pending.
	cont := g.newContinuation(action.GatePermission, token, code)

	if g.prompter != nil && g.provider.ShouldShowRationale(g.config.Permission) {
		g.logger.InfoContext(ctx, "Displaying permission rationale to provide additional context.", "token", string(token))
		d := Decision{
			Gate:           action.GatePermission,
			Action:         ActionSuspend,
			Token:          token,
			Reason:         "rationale shown before permission request",
			ContinuationID: cont.ID,
		}
		g.record(ctx, d)
		g.prompter.Rationale(g.config.RationaleText, func() {
			err := g.issue(ctx, cont)
			switch {
			case errors.Is(err, ErrCorrelationInUse):
				g.logger.WarnContext(ctx, "permission request already pending", "token", string(token), "error", err)
			case err != nil:
				g.record(ctx, Decision{
					Gate:           action.GatePermission,
					Action:         ActionReject,
					Token:          token,
					Reason:         "permission request failed to start",
					ContinuationID: cont.ID,
					Err:            err,
				})
			}
		})
		return d
	}

	g.logger.InfoContext(ctx, "Requesting permission", "token", string(token))
	if err := g.issue(ctx, cont); err != nil {
		if errors.Is(err, ErrCorrelationInUse) {
			g.logger.WarnContext(ctx, "permission request already pending", "token", string(token), "error", err)
			return Decision{
				Gate:   action.GatePermission,
				Action: ActionSuspend,
				Token:  token,
				Reason: "permission request already pending",
			}
		}
		d := Decision{
			Gate:           action.GatePermission,
			Action:         ActionReject,
			Token:          token,
			Reason:         "permission request failed to start",
			ContinuationID: cont.ID,
			Err:            err,
		}
		g.record(ctx, d)
		return d
	}

	d := Decision{
		Gate:           action.GatePermission,
		Action:         ActionSuspend,
		Token:          token,
		Reason:         "permission requested",
		ContinuationID: cont.ID,
	}
	g.record(ctx, d)
	return d
}

// issue registers cont and starts the platform prompt for it. A request
// that fails to start frees the code again.
func (g *PermissionGate) issue(ctx context.Context, cont action.Continuation) error {
	if err := g.registry.Register(cont); err != nil {
		return err
	}
	if err := g.provider.Request(g.config.Permission, cont.Code); err != nil {
		g.logger.ErrorContext(ctx, "permission request failed to start", "token", string(cont.Token), "error", err)
		_, _ = g.registry.Consume(action.GatePermission, cont.Code)
		return err
	}
	return nil
}

// #endregion check-and-run

// #region on-result
// OnResult resumes a suspended permission request. The returned error
// is non-nil only when requestCode is outside the token space.
func (g *PermissionGate) OnResult(ctx context.Context, requestCode int, grants []PermissionState) (Decision, error) {
	token, err := action.FromRequestCode(requestCode)
	if err != nil {
		g.logger.ErrorContext(ctx, "permission result for unknown request code", "request_code", requestCode, "error", err)
		return Decision{Gate: action.GatePermission, Action: ActionReject, Err: err}, err
	}

	cont, err := g.registry.Consume(action.GatePermission, action.RequestCode(requestCode))
	if err != nil {
		g.logger.WarnContext(ctx, "ignoring permission result without a pending request", "token", string(token), "error", err)
		return Decision{Gate: action.GatePermission, Action: ActionIgnore, Token: token, Err: err}, nil
	}

	switch {
	case len(grants) == 0:
		// The platform cancels the request and delivers no results when
		// the user interaction is interrupted.
		g.logger.InfoContext(ctx, "User interaction was cancelled.", "token", string(token))
		d := Decision{
			Gate:           action.GatePermission,
			Action:         ActionStall,
			Token:          token,
			ContinuationID: cont.ID,
			Err:            ErrPermissionInterrupted,
		}
		g.record(ctx, d)
		return d, nil

	case grants[0] == Granted:
		g.logger.InfoContext(ctx, "Permission granted", "token", string(token))
		g.record(ctx, Decision{
			Gate:           action.GatePermission,
			Action:         ActionProceed,
			Token:          token,
			Reason:         "permission granted",
			ContinuationID: cont.ID,
		})
		return g.next.EnsureAuthorized(ctx, token), nil

	default:
		g.logger.WarnContext(ctx, fmt.Sprintf("Permission denied; cannot %s.", describe(token)), "token", string(token))
		if g.prompter != nil {
			g.prompter.Denied(g.config.DeniedText, g.config.SettingsLabel, func() {
				if err := g.provider.OpenSettings(); err != nil {
					g.logger.WarnContext(ctx, "could not open permission settings", "error", err)
				}
			})
		}
		d := Decision{
			Gate:           action.GatePermission,
			Action:         ActionReject,
			Token:          token,
			ContinuationID: cont.ID,
			Err:            ErrPermissionDenied,
		}
		g.record(ctx, d)
		return d, nil
	}
}

// #endregion on-result

// #region helpers
func describe(token action.Token) string {
	switch token {
	case action.Subscribe:
		return "record fitness data"
	case action.ReadReport:
		return "read today's totals"
	default:
		return "continue"
	}
}

// #endregion helpers
