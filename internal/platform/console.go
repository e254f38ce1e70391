// Package platform simulates the host platform on a terminal: permission
// dialogs, the consent screen, transient prompts and speech all become
// printed lines, and their answers come back as typed commands.
package platform

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/gate"
)

// #region console
// Console implements the permission, identity, prompt and narration
// surfaces the controller depends on.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	required bool
	state    gate.PermissionState
	denials  int

	identity *gate.Identity
	scoped   bool

	permissionCodes []action.RequestCode
	consentCodes    []action.RequestCode
	rationale       func()
	deniedAction    func()
}

// NewConsole starts with the permission undetermined and nobody signed in.
// required mirrors whether the platform gates the permission at all.
func NewConsole(out io.Writer, required bool) *Console {
	return &Console{out: out, required: required, state: gate.NotDetermined}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// #endregion console

// #region permission-provider
// Required implements gate.PermissionProvider.
func (c *Console) Required(string) bool {
	return c.required
}

// CurrentState implements gate.PermissionProvider.
func (c *Console) CurrentState(string) gate.PermissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShouldShowRationale is true once the user has denied the permission.
func (c *Console) ShouldShowRationale(string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.denials > 0
}

// Request queues a permission dialog answered with allow, deny or cancel.
func (c *Console) Request(permission string, code action.RequestCode) error {
	c.mu.Lock()
	c.permissionCodes = append(c.permissionCodes, code)
	c.mu.Unlock()
	c.printf("[PERMISSION] %s requested (code %d): allow | deny | cancel", permission, code)
	return nil
}

// OpenSettings implements gate.PermissionProvider.
func (c *Console) OpenSettings() error {
	c.printf("[SETTINGS] opening app permission settings: use 'grant' to allow from here")
	return nil
}

// AnswerPermission pops the oldest pending dialog. A cancelled dialog
// yields no grants; otherwise the new state is recorded and returned.
func (c *Console) AnswerPermission(answer gate.PermissionState, cancelled bool) (int, []gate.PermissionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.permissionCodes) == 0 {
		return 0, nil, false
	}
	code := c.permissionCodes[0]
	c.permissionCodes = c.permissionCodes[1:]
	if cancelled {
		return int(code), nil, true
	}
	c.state = answer
	if answer == gate.Denied {
		c.denials++
	}
	return int(code), []gate.PermissionState{answer}, true
}

// SetPermission changes the state directly, as the settings screen would.
func (c *Console) SetPermission(s gate.PermissionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// #endregion permission-provider

// #region identity-provider
// ResolveActiveIdentity implements gate.IdentityProvider.
func (c *Console) ResolveActiveIdentity([]gate.Scope) (*gate.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, gate.ErrNoIdentity
	}
	id := *c.identity
	return &id, nil
}

// HasScopes implements gate.IdentityProvider.
func (c *Console) HasScopes(gate.Identity, []gate.Scope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scoped
}

// RequestScopes queues a consent screen answered with consent or decline.
func (c *Console) RequestScopes(identity *gate.Identity, scopes []gate.Scope, code action.RequestCode) error {
	c.mu.Lock()
	c.consentCodes = append(c.consentCodes, code)
	c.mu.Unlock()

	who := "a new account"
	if identity != nil {
		who = identity.Email
	}
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	c.printf("[CONSENT] %s asked for %s (code %d): consent | decline", who, strings.Join(names, ", "), code)
	return nil
}

// AnswerConsent pops the oldest pending consent screen. Consenting signs
// in email and grants every scope.
func (c *Console) AnswerConsent(consent bool, email string) (int, gate.ResultCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.consentCodes) == 0 {
		return 0, gate.ResultCanceled, false
	}
	code := c.consentCodes[0]
	c.consentCodes = c.consentCodes[1:]
	if !consent {
		return int(code), gate.ResultCanceled, true
	}
	if c.identity == nil {
		c.identity = &gate.Identity{ID: email, Email: email}
	}
	c.scoped = true
	return int(code), gate.ResultOK, true
}

// SignOut forgets the identity and its scopes.
func (c *Console) SignOut() {
	c.mu.Lock()
	c.identity = nil
	c.scoped = false
	c.mu.Unlock()
}

// #endregion identity-provider

// #region prompter
// Rationale implements gate.Prompter; 'ok' accepts it.
func (c *Console) Rationale(text string, proceed func()) {
	c.mu.Lock()
	c.rationale = proceed
	c.mu.Unlock()
	c.printf("[RATIONALE] %s (ok)", text)
}

// Denied implements gate.Prompter; 'settings' follows its action.
func (c *Console) Denied(text, actionLabel string, act func()) {
	c.mu.Lock()
	c.deniedAction = act
	c.mu.Unlock()
	c.printf("[SNACKBAR] %s [%s]", text, actionLabel)
}

// AcceptRationale runs the pending rationale action, if any.
func (c *Console) AcceptRationale() bool {
	c.mu.Lock()
	fn := c.rationale
	c.rationale = nil
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// FollowDenied runs the pending denial action, if any.
func (c *Console) FollowDenied() bool {
	c.mu.Lock()
	fn := c.deniedAction
	c.deniedAction = nil
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// #endregion prompter

// #region narrator
// Speak implements report.Narrator.
func (c *Console) Speak(text string, interruptPending bool) {
	if interruptPending {
		c.printf("[SPEAK] %s", text)
		return
	}
	c.printf("[SPEAK+] %s", text)
}

// #endregion narrator
