package platform

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/report"
)

var (
	_ gate.PermissionProvider = (*Console)(nil)
	_ gate.IdentityProvider   = (*Console)(nil)
	_ gate.Prompter           = (*Console)(nil)
	_ report.Narrator         = (*Console)(nil)
)

func TestConsole_PermissionDialog(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, true)

	if _, _, ok := c.AnswerPermission(gate.Granted, false); ok {
		t.Fatal("expected no pending dialog")
	}
	c.Request("perm.X", 1)
	if !strings.Contains(out.String(), "(code 1)") {
		t.Errorf("expected the request code in %q", out.String())
	}

	code, grants, ok := c.AnswerPermission(gate.Denied, false)
	if !ok || code != 1 || len(grants) != 1 || grants[0] != gate.Denied {
		t.Fatalf("unexpected answer: %d %v %v", code, grants, ok)
	}
	if !c.ShouldShowRationale("perm.X") {
		t.Error("expected rationale after a denial")
	}

	c.Request("perm.X", 0)
	code, grants, ok = c.AnswerPermission(gate.Granted, true)
	if !ok || code != 0 || grants != nil {
		t.Fatalf("expected cancelled dialog with no grants, got %d %v %v", code, grants, ok)
	}
	if c.CurrentState("perm.X") != gate.Denied {
		t.Error("a cancelled dialog must not change the state")
	}
}

func TestConsole_Consent(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, true)

	if _, err := c.ResolveActiveIdentity(nil); !errors.Is(err, gate.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
	c.RequestScopes(nil, []gate.Scope{"a"}, 1)

	code, result, ok := c.AnswerConsent(true, "me@example.com")
	if !ok || code != 1 || result != gate.ResultOK {
		t.Fatalf("unexpected consent answer: %d %d %v", code, result, ok)
	}
	id, err := c.ResolveActiveIdentity(nil)
	if err != nil || id.Email != "me@example.com" || !c.HasScopes(*id, nil) {
		t.Fatalf("expected signed-in identity with scopes, got %+v %v", id, err)
	}

	c.SignOut()
	if _, err := c.ResolveActiveIdentity(nil); !errors.Is(err, gate.ErrNoIdentity) {
		t.Fatal("expected sign out to forget the identity")
	}
}

func TestConsole_Prompts(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, true)

	ran := 0
	c.Rationale("why", func() { ran++ })
	if !c.AcceptRationale() || c.AcceptRationale() {
		t.Fatal("expected the rationale action to run exactly once")
	}
	c.Denied("denied", "Settings", func() { ran++ })
	if !c.FollowDenied() || ran != 2 {
		t.Fatalf("expected both actions to run, got %d", ran)
	}

	c.Speak("Total steps: 1 steps", true)
	if !strings.Contains(out.String(), "[SPEAK] Total steps: 1 steps") {
		t.Errorf("expected narration line in %q", out.String())
	}
}
