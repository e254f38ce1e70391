package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/logging"
)

// #region permission-provider
type fakePermissionProvider struct {
	required       bool
	state          PermissionState
	rationale      bool
	requestErr     error
	requests       []action.RequestCode
	settingsOpened int
}

func (f *fakePermissionProvider) Required(string) bool { return f.required }
func (f *fakePermissionProvider) CurrentState(string) PermissionState { return f.state }
func (f *fakePermissionProvider) ShouldShowRationale(string) bool { return f.rationale }
func (f *fakePermissionProvider) OpenSettings() error { f.settingsOpened++; return nil }
func (f *fakePermissionProvider) Request(_ string, code action.RequestCode) error {
	f.requests = append(f.requests, code)
	return f.requestErr
}

// #endregion permission-provider

// #region identity-provider
type fakeIdentityProvider struct {
	identity    *Identity
	resolveErr  error
	hasScopes   bool
	requestErr  error
	requests    []action.RequestCode
	requestedBy []*Identity
}

func (f *fakeIdentityProvider) ResolveActiveIdentity([]Scope) (*Identity, error) {
	return f.identity, f.resolveErr
}

func (f *fakeIdentityProvider) HasScopes(Identity, []Scope) bool { return f.hasScopes }

func (f *fakeIdentityProvider) RequestScopes(id *Identity, _ []Scope, code action.RequestCode) error {
	f.requests = append(f.requests, code)
	f.requestedBy = append(f.requestedBy, id)
	return f.requestErr
}

// #endregion identity-provider

// #region downstream
type recordingAuthorizer struct {
	tokens []action.Token
}

func (r *recordingAuthorizer) EnsureAuthorized(_ context.Context, token action.Token) Decision {
	r.tokens = append(r.tokens, token)
	return Decision{Gate: action.GateAuthorization, Action: ActionProceed, Token: token}
}

type recordingDispatcher struct {
	tokens []action.Token
	err    error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, token action.Token) error {
	r.tokens = append(r.tokens, token)
	return r.err
}

// #endregion downstream

// #region prompter
type fakePrompter struct {
	acceptRationale bool
	tapDenied       bool
	rationales      []string
	denials         []string
}

func (p *fakePrompter) Rationale(text string, proceed func()) {
	p.rationales = append(p.rationales, text)
	if p.acceptRationale {
		proceed()
	}
}

func (p *fakePrompter) Denied(text, _ string, act func()) {
	p.denials = append(p.denials, text)
	if p.tapDenied {
		act()
	}
}

// #endregion prompter

// #region journal
type memJournal struct {
	mu      sync.Mutex
	entries []logging.DecisionEntry
	err     error
}

func (j *memJournal) Record(e logging.DecisionEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return j.err
}

func (j *memJournal) decisions() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Gate + ":" + e.Decision
	}
	return out
}

var errBoom = errors.New("boom")

// #endregion journal
