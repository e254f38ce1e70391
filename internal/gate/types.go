package gate

import (
	"context"
	"errors"
	"time"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/logging"
)

// #region permission-state
// PermissionState is the platform's answer for one runtime permission.
type PermissionState string

const (
	Granted       PermissionState = "granted"
	Denied        PermissionState = "denied"
	NotDetermined PermissionState = "not_determined"
)

// #endregion permission-state

// #region result-code
// ResultCode is the platform result delivered with a consent callback.
type ResultCode int

const (
	ResultOK       ResultCode = -1
	ResultCanceled ResultCode = 0
)

// #endregion result-code

// #region identity
// Scope is one access scope the app needs on the active identity.
type Scope string

// Identity is an account resolved by the identity provider. The gate
// references it but never manages it.
type Identity struct {
	ID    string
	Email string
}

// #endregion identity

// #region errors
var (
	ErrPermissionDenied      = errors.New("permission denied")
	ErrPermissionInterrupted = errors.New("permission request interrupted")
	ErrAuthorizationFailed   = errors.New("authorization failed")
	ErrNoIdentity            = errors.New("no identity previously resolved")
	ErrCorrelationInUse      = errors.New("correlation id already pending")
	ErrNoPendingContinuation = errors.New("no pending continuation")
)

// #endregion errors

// #region collaborators
// PermissionProvider is the platform's runtime permission surface.
type PermissionProvider interface {
	// Required reports whether this platform version gates the permission at all.
	Required(permission string) bool
	CurrentState(permission string) PermissionState
	// ShouldShowRationale is true when the user dismissed an earlier
	// request without choosing "never ask again".
	ShouldShowRationale(permission string) bool
	// Request starts the platform prompt. The result arrives later
	// through PermissionGate.OnResult with the same code.
	Request(permission string, code action.RequestCode) error
	OpenSettings() error
}

// IdentityProvider is the platform's account and consent surface.
type IdentityProvider interface {
	// ResolveActiveIdentity may return ErrNoIdentity or a nil identity.
	ResolveActiveIdentity(scopes []Scope) (*Identity, error)
	HasScopes(identity Identity, scopes []Scope) bool
	// RequestScopes starts the interactive consent flow. identity may be
	// nil. The result arrives later through AuthorizationGate.OnResult.
	RequestScopes(identity *Identity, scopes []Scope, code action.RequestCode) error
}

// Prompter shows transient, non-blocking UI affordances.
type Prompter interface {
	Rationale(text string, proceed func())
	Denied(text, actionLabel string, act func())
}

// Journal persists gate decisions.
type Journal interface {
	Record(entry logging.DecisionEntry) error
}

// Authorizer is the step after the permission gate.
type Authorizer interface {
	EnsureAuthorized(ctx context.Context, token action.Token) Decision
}

// Dispatcher resumes a token once every gate has passed.
type Dispatcher interface {
	Dispatch(ctx context.Context, token action.Token) error
}

// #endregion collaborators

// #region gate-config
// GateConfig holds what the gates check and how long a suspension may
// block a new request for the same code.
type GateConfig struct {
	Permission      string
	Scopes          []Scope
	ContinuationTTL time.Duration // zero keeps a continuation until its callback arrives
	RationaleText   string
	DeniedText      string
	SettingsLabel   string
}

// DefaultGateConfig returns the activity-recognition permission and the
// read scopes covering the five fitness channels.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Permission: "android.permission.ACTIVITY_RECOGNITION",
		Scopes: []Scope{
			"fitness.activity.read",
			"fitness.location.read",
		},
		ContinuationTTL: 10 * time.Minute,
		RationaleText:   "Activity recognition permission is needed to count your steps.",
		DeniedText:      "Permission was denied, but is needed for core functionality.",
		SettingsLabel:   "Settings",
	}
}

// #endregion gate-config

// #region gate-decision
// Action is the outcome of one gate step.
type Action string

const (
	ActionProceed Action = "proceed" // the deferred action was dispatched
	ActionSuspend Action = "suspend" // waiting on a platform callback
	ActionReject  Action = "reject"  // flow ends; user must re-trigger
	ActionStall   Action = "stall"   // interrupted; flow ends silently
	ActionIgnore  Action = "ignore"  // callback without a pending continuation
)

// Decision is the output of a gate step.
type Decision struct {
	Gate           action.GateKind
	Action         Action
	Token          action.Token
	Reason         string
	ContinuationID string
	Err            error // one of the gate errors above, nil on proceed/suspend
}

// #endregion gate-decision
