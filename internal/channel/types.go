package channel

import (
	"context"
	"errors"
	"time"
)

// #region id

// ID names one fitness data channel.
type ID string

const (
	Steps       ID = "steps"
	Distance    ID = "distance"
	Calories    ID = "calories"
	MoveMinutes ID = "move_minutes"
	HeartPoints ID = "heart_points"
)

// #endregion

// #region descriptor

// Kind controls how a channel value is rendered.
type Kind string

const (
	KindInteger Kind = "integer"
	KindDecimal Kind = "decimal"
)

// Descriptor is one row of the channel table that drives both the
// report fan-out and the subscription fan-out.
type Descriptor struct {
	ID    ID
	Name  string // human name used in log lines
	Field string // data point field holding the daily total
	Unit  string
	Label string
	Kind  Kind
}

var descriptors = []Descriptor{
	{ID: Steps, Name: "step count", Field: "steps", Unit: "steps", Label: "Total steps", Kind: KindInteger},
	{ID: Distance, Name: "distance", Field: "distance", Unit: "metres", Label: "Total distance", Kind: KindDecimal},
	{ID: Calories, Name: "calories expended", Field: "calories", Unit: "calories", Label: "Total calories expended", Kind: KindDecimal},
	{ID: MoveMinutes, Name: "move minutes", Field: "duration", Unit: "minutes", Label: "Total move minutes", Kind: KindInteger},
	{ID: HeartPoints, Name: "heart points", Field: "intensity", Unit: "points", Label: "Total heart points", Kind: KindInteger},
}

// Descriptors returns the channel table in report order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for id.
func Lookup(id ID) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// #endregion

// #region data

// DataPoint is the first data point of a daily total. A nil Fields map
// means the channel had no data point for the day.
type DataPoint struct {
	Fields map[string]float64
}

// Value returns the named field, or zero if absent.
func (p DataPoint) Value(field string) float64 {
	return p.Fields[field]
}

// Reading is one channel's contribution to a report.
type Reading struct {
	Channel ID      `json:"channel"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Label   string  `json:"label"`
}

// #endregion

// #region service

// ErrQueryFailed marks a failed per-channel query.
var ErrQueryFailed = errors.New("channel query failed")

// Service is the external fitness data service. Both calls return
// immediately; results arrive through the returned futures.
type Service interface {
	Subscribe(ctx context.Context, id ID) *Future[struct{}]
	QueryDailyTotal(ctx context.Context, id ID, since time.Time) *Future[DataPoint]
}

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// #endregion
