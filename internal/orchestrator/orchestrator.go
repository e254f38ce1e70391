package orchestrator

// #region imports
import (
	"context"
	"log/slog"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/recording"
	"github.com/ikstudios/step-counter/internal/report"
)

// #endregion

// #region orchestrator-struct

// Orchestrator is the host-facing entry point. UI events enter through
// the permission gate, platform results are routed back to the gate that
// suspended, and the resumer finally runs the subscription registrar or
// the report aggregator.
type Orchestrator struct {
	permission    *gate.PermissionGate
	authorization *gate.AuthorizationGate
	resumer       *action.Resumer
	aggregator    *report.Aggregator
	registrar     *recording.Registrar
	logger        *slog.Logger
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator. Both gates share deps.Registry
// so a single store can hold every suspended action.
func New(cfg Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	aggOpts := []report.Option{report.WithLogger(logger)}
	if deps.Recorder != nil {
		aggOpts = append(aggOpts, report.WithRecorder(deps.Recorder))
	}
	if deps.TracerProvider != nil {
		aggOpts = append(aggOpts, report.WithTracerProvider(deps.TracerProvider))
	}
	if deps.MeterProvider != nil {
		aggOpts = append(aggOpts, report.WithMeterProvider(deps.MeterProvider))
	}
	aggregator := report.NewAggregator(deps.Channels, deps.Narrator, cfg.Report, aggOpts...)

	recOpts := []recording.Option{recording.WithLogger(logger)}
	if deps.Subscriptions != nil {
		recOpts = append(recOpts, recording.WithJournal(deps.Subscriptions))
	}
	if deps.MeterProvider != nil {
		recOpts = append(recOpts, recording.WithMeterProvider(deps.MeterProvider))
	}
	registrar := recording.NewRegistrar(deps.Channels, recOpts...)

	resumer := action.NewResumer(registrar, aggregator, logger)

	registry := deps.Registry
	if registry == nil {
		registry = gate.NewMemoryRegistry(cfg.Gate.ContinuationTTL)
	}
	gateOpts := []gate.Option{gate.WithRegistry(registry), gate.WithLogger(logger)}
	if deps.Journal != nil {
		gateOpts = append(gateOpts, gate.WithJournal(deps.Journal))
	}
	if deps.Prompter != nil {
		gateOpts = append(gateOpts, gate.WithPrompter(deps.Prompter))
	}
	authorization := gate.NewAuthorizationGate(cfg.Gate, deps.Identity, resumer, gateOpts...)
	permission := gate.NewPermissionGate(cfg.Gate, deps.Permissions, authorization, gateOpts...)

	return &Orchestrator{
		permission:    permission,
		authorization: authorization,
		resumer:       resumer,
		aggregator:    aggregator,
		registrar:     registrar,
		logger:        logger.With("component", "orchestrator"),
	}
}

// #endregion

// #region entry-points

// Start runs the gated subscription flow once, as the host does on launch.
func (o *Orchestrator) Start(ctx context.Context) gate.Decision {
	return o.OnAuthorizedFlowEvent(ctx, action.Subscribe)
}

// OnAuthorizedFlowEvent runs token through both gates. The decision says
// whether the action ran, is waiting on the platform, or was refused.
func (o *Orchestrator) OnAuthorizedFlowEvent(ctx context.Context, token action.Token) gate.Decision {
	d := o.permission.CheckAndRun(ctx, token)
	o.logDecision(ctx, "flow event", d)
	return d
}

// OnPermissionResult delivers the platform's permission result. The
// error is non-nil only for a request code this controller never issued.
func (o *Orchestrator) OnPermissionResult(ctx context.Context, requestCode int, grants []gate.PermissionState) (gate.Decision, error) {
	d, err := o.permission.OnResult(ctx, requestCode, grants)
	o.logDecision(ctx, "permission result", d)
	return d, err
}

// OnAuthorizationResult delivers the consent flow's result. The error is
// non-nil only for a request code this controller never issued.
func (o *Orchestrator) OnAuthorizationResult(ctx context.Context, requestCode int, result gate.ResultCode) (gate.Decision, error) {
	d, err := o.authorization.OnResult(ctx, requestCode, result)
	o.logDecision(ctx, "authorization result", d)
	return d, err
}

// ReadNow runs the aggregator directly, without either gate.
func (o *Orchestrator) ReadNow(ctx context.Context) (report.Report, string) {
	return o.aggregator.Read(ctx)
}

// #endregion

// #region logging

func (o *Orchestrator) logDecision(ctx context.Context, stage string, d gate.Decision) {
	attrs := []any{
		"stage", stage,
		"gate", string(d.Gate),
		"action", string(d.Action),
		"token", string(d.Token),
	}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	o.logger.DebugContext(ctx, "gate decision", attrs...)
}

// #endregion
