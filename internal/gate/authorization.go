package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikstudios/step-counter/internal/action"
)

// #region authorization-gate
// AuthorizationGate checks that the active identity holds the required
// scopes before dispatching a token.
type AuthorizationGate struct {
	config   GateConfig
	provider IdentityProvider
	next     Dispatcher
	options
}

// NewAuthorizationGate creates an authorization gate dispatching to next.
func NewAuthorizationGate(config GateConfig, provider IdentityProvider, next Dispatcher, opts ...Option) *AuthorizationGate {
	return &AuthorizationGate{
		config:   config,
		provider: provider,
		next:     next,
		options:  buildOptions(config, "authorization_gate", opts),
	}
}

// #endregion authorization-gate

// #region authorized
// Authorized resolves the active identity and checks its scopes. A
// missing identity is not an error: it simply is not authorized.
func (g *AuthorizationGate) Authorized(ctx context.Context) (*Identity, bool) {
	identity, err := g.provider.ResolveActiveIdentity(g.config.Scopes)
	if err != nil {
		if !errors.Is(err, ErrNoIdentity) {
			g.logger.WarnContext(ctx, "could not resolve active identity", "error", err)
		}
		return nil, false
	}
	if identity == nil {
		return nil, false
	}
	return identity, g.provider.HasScopes(*identity, g.config.Scopes)
}

// #endregion authorized

// #region ensure-authorized
// EnsureAuthorized dispatches token when the identity already holds the
// scopes, otherwise starts one consent flow carrying the token's
// request code and suspends.
func (g *AuthorizationGate) EnsureAuthorized(ctx context.Context, token action.Token) Decision {
	code, err := token.RequestCode()
	if err != nil {
		g.logger.ErrorContext(ctx, "refusing to authorize unknown action", "token", string(token), "error", err)
		return Decision{Gate: action.GateAuthorization, Action: ActionReject, Token: token, Err: err}
	}

	identity, ok := g.Authorized(ctx)
	if ok {
		return g.dispatch(ctx, token, "")
	}

	cont := g.newContinuation(action.GateAuthorization, token, code)
	if err := g.registry.Register(cont); err != nil {
		g.logger.WarnContext(ctx, "consent flow already pending", "token", string(token), "error", err)
		return Decision{
			Gate:   action.GateAuthorization,
			Action: ActionSuspend,
			Token:  token,
			Reason: "consent flow already pending",
		}
	}

	g.logger.InfoContext(ctx, "Requesting access to fitness data", "token", string(token))
	if err := g.provider.RequestScopes(identity, g.config.Scopes, code); err != nil {
		_, _ = g.registry.Consume(action.GateAuthorization, code)
		g.logger.ErrorContext(ctx, "consent flow failed to start", "token", string(token), "error", err)
		d := Decision{
			Gate:           action.GateAuthorization,
			Action:         ActionReject,
			Token:          token,
			Reason:         "consent flow failed to start",
			ContinuationID: cont.ID,
			Err:            fmt.Errorf("%w: %v", ErrAuthorizationFailed, err),
		}
		g.record(ctx, d)
		return d
	}

	d := Decision{
		Gate:           action.GateAuthorization,
		Action:         ActionSuspend,
		Token:          token,
		Reason:         "consent requested",
		ContinuationID: cont.ID,
	}
	g.record(ctx, d)
	return d
}

// #endregion ensure-authorized

// #region on-result
// OnResult resumes a suspended consent flow. The returned error is
// non-nil only for contract violations: an unknown request code or a
// token the dispatcher cannot map.
func (g *AuthorizationGate) OnResult(ctx context.Context, requestCode int, result ResultCode) (Decision, error) {
	token, err := action.FromRequestCode(requestCode)
	if err != nil {
		g.logger.ErrorContext(ctx, "consent result for unknown request code", "request_code", requestCode, "error", err)
		return Decision{Gate: action.GateAuthorization, Action: ActionReject, Err: err}, err
	}

	cont, err := g.registry.Consume(action.GateAuthorization, action.RequestCode(requestCode))
	if err != nil {
		g.logger.WarnContext(ctx, "ignoring consent result without a pending flow", "token", string(token), "error", err)
		return Decision{Gate: action.GateAuthorization, Action: ActionIgnore, Token: token, Err: err}, nil
	}

	if result != ResultOK {
		msg := fmt.Sprintf("There was an error signing into Fit. Request code was: %d Result code was: %d",
			requestCode, int(result))
		g.logger.ErrorContext(ctx, msg, "token", string(token), "request_code", requestCode, "result_code", int(result))
		d := Decision{
			Gate:           action.GateAuthorization,
			Action:         ActionReject,
			Token:          token,
			Reason:         msg,
			ContinuationID: cont.ID,
			Err:            fmt.Errorf("request code %d result code %d: %w", requestCode, int(result), ErrAuthorizationFailed),
		}
		g.record(ctx, d)
		return d, nil
	}

	d := g.dispatch(ctx, token, cont.ID)
	if errors.Is(d.Err, action.ErrUnrecognizedCorrelationID) {
		return d, d.Err
	}
	return d, nil
}

// #endregion on-result

// #region dispatch
func (g *AuthorizationGate) dispatch(ctx context.Context, token action.Token, continuationID string) Decision {
	d := Decision{
		Gate:           action.GateAuthorization,
		Action:         ActionProceed,
		Token:          token,
		Reason:         "dispatched",
		ContinuationID: continuationID,
	}
	if err := g.next.Dispatch(ctx, token); err != nil {
		d.Action = ActionReject
		d.Reason = "dispatch failed"
		d.Err = err
	}
	g.record(ctx, d)
	return d
}

// #endregion dispatch
