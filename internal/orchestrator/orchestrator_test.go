package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/logging"
	"github.com/ikstudios/step-counter/internal/store"
)

// #region fakes
type fakePermissions struct {
	state     gate.PermissionState
	requested []action.RequestCode
	settings  int
}

func (p *fakePermissions) Required(string) bool                     { return true }
func (p *fakePermissions) CurrentState(string) gate.PermissionState { return p.state }
func (p *fakePermissions) ShouldShowRationale(string) bool          { return false }
func (p *fakePermissions) OpenSettings() error                      { p.settings++; return nil }

func (p *fakePermissions) Request(_ string, code action.RequestCode) error {
	p.requested = append(p.requested, code)
	return nil
}

type fakeIdentity struct {
	identity  *gate.Identity
	granted   bool
	resolves  int
	requested []action.RequestCode
}

func (i *fakeIdentity) ResolveActiveIdentity([]gate.Scope) (*gate.Identity, error) {
	i.resolves++
	if i.identity == nil {
		return nil, gate.ErrNoIdentity
	}
	return i.identity, nil
}

func (i *fakeIdentity) HasScopes(gate.Identity, []gate.Scope) bool { return i.granted }

func (i *fakeIdentity) RequestScopes(_ *gate.Identity, _ []gate.Scope, code action.RequestCode) error {
	i.requested = append(i.requested, code)
	return nil
}

type fakeChannels struct {
	mu            sync.Mutex
	subscriptions int
	queries       int
}

func (c *fakeChannels) Subscribe(context.Context, channel.ID) *channel.Future[struct{}] {
	c.mu.Lock()
	c.subscriptions++
	c.mu.Unlock()
	return channel.Resolved(struct{}{})
}

func (c *fakeChannels) QueryDailyTotal(_ context.Context, id channel.ID, _ time.Time) *channel.Future[channel.DataPoint] {
	c.mu.Lock()
	c.queries++
	c.mu.Unlock()
	d, _ := channel.Lookup(id)
	return channel.Resolved(channel.DataPoint{Fields: map[string]float64{d.Field: 7}})
}

type fakeNarrator struct {
	spoken []string
}

func (n *fakeNarrator) Speak(text string, _ bool) { n.spoken = append(n.spoken, text) }

type fakePrompter struct {
	denied int
}

func (p *fakePrompter) Rationale(_ string, proceed func()) { proceed() }
func (p *fakePrompter) Denied(_, _ string, act func())     { p.denied++; act() }

type harness struct {
	perms    *fakePermissions
	identity *fakeIdentity
	channels *fakeChannels
	narrator *fakeNarrator
	prompter *fakePrompter
	orch     *Orchestrator
}

func newHarness(state gate.PermissionState, identity *gate.Identity, granted bool, extra func(*Deps)) *harness {
	h := &harness{
		perms:    &fakePermissions{state: state},
		identity: &fakeIdentity{identity: identity, granted: granted},
		channels: &fakeChannels{},
		narrator: &fakeNarrator{},
		prompter: &fakePrompter{},
	}
	deps := Deps{
		Permissions: h.perms,
		Identity:    h.identity,
		Channels:    h.channels,
		Narrator:    h.narrator,
		Prompter:    h.prompter,
	}
	if extra != nil {
		extra(&deps)
	}
	h.orch = New(DefaultConfig(), deps)
	return h
}

var alice = &gate.Identity{ID: "1", Email: "alice@example.com"}

// #endregion fakes

// #region flow-tests
func TestFlow_AllGrantedRunsImmediately(t *testing.T) {
	h := newHarness(gate.Granted, alice, true, nil)

	d := h.orch.OnAuthorizedFlowEvent(context.Background(), action.ReadReport)

	if d.Action != gate.ActionProceed {
		t.Fatalf("expected proceed, got %s (%v)", d.Action, d.Err)
	}
	if h.channels.queries != 5 || len(h.narrator.spoken) != 1 {
		t.Fatalf("expected 5 queries and 1 narration, got %d and %d", h.channels.queries, len(h.narrator.spoken))
	}
	if len(h.perms.requested) != 0 || len(h.identity.requested) != 0 {
		t.Fatal("expected no platform requests")
	}
}

func TestFlow_PermissionDeniedStopsBeforeAuthorization(t *testing.T) {
	h := newHarness(gate.NotDetermined, alice, true, nil)
	ctx := context.Background()

	d := h.orch.OnAuthorizedFlowEvent(ctx, action.ReadReport)
	if d.Action != gate.ActionSuspend {
		t.Fatalf("expected suspend, got %s", d.Action)
	}
	if len(h.perms.requested) != 1 || h.perms.requested[0] != 1 {
		t.Fatalf("expected one request with code 1, got %v", h.perms.requested)
	}

	d, err := h.orch.OnPermissionResult(ctx, 1, []gate.PermissionState{gate.Denied})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(d.Err, gate.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", d.Err)
	}
	if h.identity.resolves != 0 || len(h.identity.requested) != 0 {
		t.Fatal("authorization gate must not be consulted after a denial")
	}
	if h.channels.queries != 0 || h.channels.subscriptions != 0 {
		t.Fatal("no channel calls expected after a denial")
	}
	if h.prompter.denied != 1 || h.perms.settings != 1 {
		t.Fatalf("expected denial prompt opening settings, got %d prompts, %d opens", h.prompter.denied, h.perms.settings)
	}
}

func TestFlow_ConsentResumesReadReportOnce(t *testing.T) {
	h := newHarness(gate.Granted, alice, false, nil)
	ctx := context.Background()

	d := h.orch.OnAuthorizedFlowEvent(ctx, action.ReadReport)
	if d.Action != gate.ActionSuspend || d.Gate != action.GateAuthorization {
		t.Fatalf("expected authorization suspend, got %s/%s", d.Gate, d.Action)
	}
	if len(h.identity.requested) != 1 || h.identity.requested[0] != 1 {
		t.Fatalf("expected consent request with code 1, got %v", h.identity.requested)
	}

	d, err := h.orch.OnAuthorizationResult(ctx, 1, gate.ResultOK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != gate.ActionProceed || d.Token != action.ReadReport {
		t.Fatalf("expected ReadReport to proceed, got %s %s", d.Token, d.Action)
	}
	if len(h.narrator.spoken) != 1 {
		t.Fatalf("expected one report, got %d", len(h.narrator.spoken))
	}

	// A duplicated platform callback must not run the action again.
	d, err = h.orch.OnAuthorizationResult(ctx, 1, gate.ResultOK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != gate.ActionIgnore {
		t.Fatalf("expected duplicate result to be ignored, got %s", d.Action)
	}
	if len(h.narrator.spoken) != 1 || h.channels.queries != 5 {
		t.Fatalf("action ran more than once: %d reports, %d queries", len(h.narrator.spoken), h.channels.queries)
	}
}

func TestFlow_ConsentCancelledRunsNothing(t *testing.T) {
	h := newHarness(gate.Granted, nil, false, nil)
	ctx := context.Background()

	h.orch.OnAuthorizedFlowEvent(ctx, action.Subscribe)
	if len(h.identity.requested) != 1 || h.identity.requested[0] != 0 {
		t.Fatalf("expected consent request with code 0, got %v", h.identity.requested)
	}

	d, err := h.orch.OnAuthorizationResult(ctx, 0, gate.ResultCanceled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(d.Err, gate.ErrAuthorizationFailed) {
		t.Fatalf("expected ErrAuthorizationFailed, got %v", d.Err)
	}
	if h.channels.subscriptions != 0 {
		t.Fatal("no subscriptions expected")
	}
}

func TestFlow_FullRoundTrip(t *testing.T) {
	h := newHarness(gate.NotDetermined, nil, false, nil)
	ctx := context.Background()

	h.orch.OnAuthorizedFlowEvent(ctx, action.ReadReport)

	h.perms.state = gate.Granted
	d, err := h.orch.OnPermissionResult(ctx, 1, []gate.PermissionState{gate.Granted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Gate != action.GateAuthorization || d.Action != gate.ActionSuspend {
		t.Fatalf("expected to continue into consent, got %s/%s", d.Gate, d.Action)
	}

	h.identity.identity = alice
	h.identity.granted = true
	if _, err := h.orch.OnAuthorizationResult(ctx, 1, gate.ResultOK); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.narrator.spoken) != 1 {
		t.Fatalf("expected one report after both gates, got %d", len(h.narrator.spoken))
	}
}

func TestFlow_UnknownRequestCode(t *testing.T) {
	h := newHarness(gate.Granted, alice, true, nil)

	_, err := h.orch.OnAuthorizationResult(context.Background(), 7, gate.ResultOK)
	if !errors.Is(err, action.ErrUnrecognizedCorrelationID) {
		t.Fatalf("expected ErrUnrecognizedCorrelationID, got %v", err)
	}
	_, err = h.orch.OnPermissionResult(context.Background(), -3, []gate.PermissionState{gate.Granted})
	if !errors.Is(err, action.ErrUnrecognizedCorrelationID) {
		t.Fatalf("expected ErrUnrecognizedCorrelationID, got %v", err)
	}
}

func TestStart_SubscribesAllChannels(t *testing.T) {
	h := newHarness(gate.Granted, alice, true, nil)

	d := h.orch.Start(context.Background())

	if d.Token != action.Subscribe || d.Action != gate.ActionProceed {
		t.Fatalf("expected Subscribe to proceed, got %s %s", d.Token, d.Action)
	}
	if h.channels.subscriptions != 5 {
		t.Fatalf("expected 5 subscriptions, got %d", h.channels.subscriptions)
	}
	if h.channels.queries != 0 {
		t.Fatal("Start must not read")
	}
}

func TestReadNow_BypassesGates(t *testing.T) {
	h := newHarness(gate.Denied, nil, false, nil)

	_, status := h.orch.ReadNow(context.Background())

	if status != "Data read!" {
		t.Fatalf("unexpected status %q", status)
	}
	if h.channels.queries != 5 || len(h.perms.requested) != 0 {
		t.Fatalf("expected an ungated read, got %d queries, %d requests", h.channels.queries, len(h.perms.requested))
	}
}

// #endregion flow-tests

// #region persistence-tests
func TestFlow_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.db")
	ctx := context.Background()

	s, err := store.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	withStore := func(s *store.Store) func(*Deps) {
		return func(d *Deps) {
			d.Registry = s.Continuations(time.Minute)
			d.Journal = logging.DBJournal{DB: s.DB()}
			d.Recorder = s
			d.Subscriptions = s
		}
	}

	h := newHarness(gate.Granted, alice, false, withStore(s))
	h.orch.OnAuthorizedFlowEvent(ctx, action.ReadReport)
	s.Close()

	// A new process picks up the suspended action from the store.
	s, err = store.NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	h = newHarness(gate.Granted, alice, true, withStore(s))

	d, err := h.orch.OnAuthorizationResult(ctx, 1, gate.ResultOK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != gate.ActionProceed {
		t.Fatalf("expected proceed after restart, got %s", d.Action)
	}

	reports, err := s.ListReports(10)
	if err != nil || len(reports) != 1 {
		t.Fatalf("expected 1 stored report, got %d (%v)", len(reports), err)
	}
	decisions, err := s.ListDecisions(10)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(decisions) != 2 || decisions[0].Decision != "proceed" || decisions[1].Decision != "suspend" {
		t.Fatalf("unexpected journal: %+v", decisions)
	}
}

// #endregion persistence-tests
