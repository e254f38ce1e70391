// Package recording keeps the platform recording every channel in the
// background so daily totals are available when a report is read.
package recording

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ikstudios/step-counter/internal/channel"
)

const instrumentationName = "github.com/ikstudios/step-counter/internal/recording"

// Journal stores subscription outcomes.
type Journal interface {
	RecordSubscription(ctx context.Context, id channel.ID, ok bool, detail string) error
}

// #region options
type options struct {
	journal Journal
	logger  *slog.Logger
	meter   metric.MeterProvider
}

// Option configures a Registrar.
type Option func(*options)

// WithJournal records each subscription outcome.
func WithJournal(j Journal) Option { return func(o *options) { o.journal = j } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option { return func(o *options) { o.meter = mp } }

// #endregion options

// #region registrar
// Registrar subscribes to every channel. Subscriptions are idempotent on
// the platform side, so every Run re-issues all of them.
type Registrar struct {
	service channel.Service
	descs   []channel.Descriptor
	journal Journal
	logger  *slog.Logger
	results metric.Int64Counter
}

// NewRegistrar creates a registrar over the standard channel table.
func NewRegistrar(service channel.Service, opts ...Option) *Registrar {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.meter == nil {
		o.meter = otel.GetMeterProvider()
	}

	logger := o.logger.With("component", "registrar")
	results, err := o.meter.Meter(instrumentationName).Int64Counter(
		"stepcounter.channel.subscription.results",
		metric.WithDescription("Channel subscription outcomes by channel and outcome"),
	)
	if err != nil {
		logger.Warn("failed to create subscription counter", "error", err)
	}

	return &Registrar{
		service: service,
		descs:   channel.Descriptors(),
		journal: o.journal,
		logger:  logger,
		results: results,
	}
}

// Run issues one subscription per channel and returns without waiting.
// Outcomes are logged as they arrive.
func (r *Registrar) Run(ctx context.Context) {
	for _, d := range r.descs {
		r.subscribe(ctx, d)
	}
}

// #endregion registrar

func (r *Registrar) subscribe(ctx context.Context, d channel.Descriptor) {
	r.service.Subscribe(ctx, d.ID).Then(
		func(struct{}) {
			r.logger.InfoContext(ctx, "Subscription to "+d.Name+" was successful!", "channel", string(d.ID))
			r.settle(ctx, d.ID, true, "")
		},
		func(err error) {
			r.logger.WarnContext(ctx, "There was a problem subscribing to "+d.Name+".", "channel", string(d.ID), "error", err)
			r.settle(ctx, d.ID, false, err.Error())
		},
	)
}

func (r *Registrar) settle(ctx context.Context, id channel.ID, ok bool, detail string) {
	if r.results != nil {
		outcome := "ok"
		if !ok {
			outcome = "error"
		}
		r.results.Add(ctx, 1, metric.WithAttributes(
			attribute.String("channel", string(id)),
			attribute.String("outcome", outcome),
		))
	}
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordSubscription(ctx, id, ok, detail); err != nil {
		r.logger.WarnContext(ctx, "failed to record subscription", "channel", string(id), "error", err)
	}
}
