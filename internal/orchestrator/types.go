package orchestrator

// #region imports
import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/recording"
	"github.com/ikstudios/step-counter/internal/report"
)

// #endregion

// #region config

// Config bundles the gate and report settings.
type Config struct {
	Gate   gate.GateConfig
	Report report.Config
}

// DefaultConfig returns the default gate and report settings.
func DefaultConfig() Config {
	return Config{
		Gate:   gate.DefaultGateConfig(),
		Report: report.DefaultConfig(),
	}
}

// #endregion

// #region deps

// Deps are the host-provided collaborators. Permissions, Identity,
// Channels and Narrator are required; the rest fall back to in-memory
// or no-op behaviour when nil.
type Deps struct {
	Permissions gate.PermissionProvider
	Identity    gate.IdentityProvider
	Channels    channel.Service
	Narrator    report.Narrator

	Prompter      gate.Prompter
	Registry      gate.Registry
	Journal       gate.Journal
	Recorder      report.Recorder
	Subscriptions recording.Journal

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// #endregion
