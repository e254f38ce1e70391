package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikstudios/step-counter/internal/channel"
)

const instrumentationName = "github.com/ikstudios/step-counter/internal/report"

// #region options
type options struct {
	recorder Recorder
	logger   *slog.Logger
	tracer   trace.TracerProvider
	meter    metric.MeterProvider
	now      func() time.Time
}

// Option configures an Aggregator.
type Option func(*options)

// WithRecorder persists every assembled report.
func WithRecorder(r Recorder) Option { return func(o *options) { o.recorder = r } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option { return func(o *options) { o.tracer = tp } }

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option { return func(o *options) { o.meter = mp } }

// WithClock overrides the clock for deterministic testing.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// #endregion options

// #region aggregator
// Aggregator fans a read out over every channel and narrates the result.
type Aggregator struct {
	service   channel.Service
	narrator  Narrator
	config    Config
	descs     []channel.Descriptor
	buffer    *Buffer
	formatter *Formatter

	recorder Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
	results  metric.Int64Counter
	now      func() time.Time
}

// NewAggregator creates an aggregator over the standard channel table.
func NewAggregator(service channel.Service, narrator Narrator, config Config, opts ...Option) *Aggregator {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider()
	}
	if o.meter == nil {
		o.meter = otel.GetMeterProvider()
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	logger := o.logger.With("component", "aggregator")
	results, err := o.meter.Meter(instrumentationName).Int64Counter(
		"stepcounter.channel.query.results",
		metric.WithDescription("Channel query outcomes by channel and outcome"),
	)
	if err != nil {
		logger.Warn("failed to create query result counter", "error", err)
	}

	return &Aggregator{
		service:   service,
		narrator:  narrator,
		config:    config,
		descs:     channel.Descriptors(),
		buffer:    NewBuffer(),
		formatter: NewFormatter(config.Locale),
		recorder:  o.recorder,
		logger:    logger,
		tracer:    o.tracer.Tracer(instrumentationName),
		results:   results,
		now:       o.now,
	}
}

// Buffer exposes the slot table.
func (a *Aggregator) Buffer() *Buffer {
	return a.buffer
}

// Run satisfies action.Handler.
func (a *Aggregator) Run(ctx context.Context) {
	a.Read(ctx)
}

// #endregion aggregator

// #region read
// Read issues one daily-total query per channel, assembles the report
// from the buffer (after the queries settle in await mode, immediately
// in snapshot mode), narrates it and returns it with StatusIssued.
func (a *Aggregator) Read(ctx context.Context) (Report, string) {
	ctx, span := a.tracer.Start(ctx, "report.read",
		trace.WithAttributes(attribute.String("report.mode", string(a.config.Mode))))
	defer span.End()

	since := channel.StartOfDay(a.now(), a.config.Location)
	futures := make([]*channel.Future[channel.DataPoint], 0, len(a.descs))
	for _, d := range a.descs {
		futures = append(futures, a.query(ctx, d, since))
	}

	if a.config.Mode != ModeSnapshot {
		if settled := a.await(ctx, futures); !settled {
			span.AddEvent("assembled before every channel settled")
		}
	}

	rep := a.assemble()
	span.SetAttributes(attribute.Int("report.missing", len(rep.Missing)))

	a.logger.InfoContext(ctx, rep.Text, "report_id", rep.ID, "missing", len(rep.Missing))
	if a.narrator != nil {
		a.narrator.Speak(rep.Text, true)
	}
	if a.recorder != nil {
		if err := a.recorder.SaveReport(ctx, rep); err != nil {
			a.logger.WarnContext(ctx, "failed to save report", "report_id", rep.ID, "error", err)
		}
	}
	return rep, StatusIssued
}

// #endregion read

// #region query
func (a *Aggregator) query(ctx context.Context, d channel.Descriptor, since time.Time) *channel.Future[channel.DataPoint] {
	qctx, span := a.tracer.Start(ctx, "channel.query",
		trace.WithAttributes(attribute.String("channel.id", string(d.ID))))

	f := a.service.QueryDailyTotal(qctx, d.ID, since)
	f.Then(
		func(p channel.DataPoint) {
			// A missing data point counts as zero for the day.
			a.buffer.Set(channel.Reading{
				Channel: d.ID,
				Value:   p.Value(d.Field),
				Unit:    d.Unit,
				Label:   d.Label,
			})
			a.count(qctx, d.ID, "ok")
			span.End()
		},
		func(err error) {
			err = fmt.Errorf("%w: %s: %w", channel.ErrQueryFailed, d.ID, err)
			a.logger.WarnContext(qctx, "There was a problem getting "+d.Name+".", "channel", string(d.ID), "error", err)
			a.count(qctx, d.ID, "error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			span.End()
		},
	)
	return f
}

func (a *Aggregator) count(ctx context.Context, id channel.ID, outcome string) {
	if a.results == nil {
		return
	}
	a.results.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", string(id)),
		attribute.String("outcome", outcome),
	))
}

// #endregion query

// #region await
// await blocks until every future settles, the timeout passes, or ctx
// ends. It reports whether every future settled.
func (a *Aggregator) await(ctx context.Context, futures []*channel.Future[channel.DataPoint]) bool {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			a.logger.WarnContext(ctx, "assembling report before every channel answered", "error", ctx.Err())
			return false
		}
	}
	return true
}

// #endregion await

// #region assemble
func (a *Aggregator) assemble() Report {
	slots := a.buffer.Snapshot()
	rep := Report{
		ID:        uuid.New().String(),
		Text:      a.formatter.Text(a.descs, slots),
		Mode:      a.config.Mode,
		CreatedAt: a.now().UTC(),
	}
	for _, d := range a.descs {
		if r, ok := slots[d.ID]; ok {
			rep.Readings = append(rep.Readings, r)
		} else {
			rep.Missing = append(rep.Missing, d.ID)
		}
	}
	return rep
}

// #endregion assemble
