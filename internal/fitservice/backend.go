package fitservice

import (
	"context"
	"fmt"
	"time"

	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/store"
)

// #region store-backend
// StoreBackend serves channel data from the local samples table.
type StoreBackend struct {
	Store *store.Store
}

// Subscribe marks id as recorded.
func (b StoreBackend) Subscribe(ctx context.Context, id channel.ID) error {
	return b.Store.RecordSubscription(ctx, id, true, "")
}

// DailyTotal sums the channel's samples since the instant into the
// channel's data point field.
func (b StoreBackend) DailyTotal(ctx context.Context, id channel.ID, since time.Time) (channel.DataPoint, error) {
	d, ok := channel.Lookup(id)
	if !ok {
		return channel.DataPoint{}, fmt.Errorf("unknown channel %q", id)
	}
	total, found, err := b.Store.DailyTotal(ctx, id, since)
	if err != nil {
		return channel.DataPoint{}, err
	}
	if !found {
		return channel.DataPoint{}, nil
	}
	return channel.DataPoint{Fields: map[string]float64{d.Field: total}}, nil
}
// #endregion store-backend

// #region local
// Local is an in-process channel.Service over a Backend, used when no
// remote server is configured.
type Local struct {
	Backend Backend
}

// Subscribe implements channel.Service.
func (l Local) Subscribe(ctx context.Context, id channel.ID) *channel.Future[struct{}] {
	return channel.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.Backend.Subscribe(ctx, id)
	})
}

// QueryDailyTotal implements channel.Service.
func (l Local) QueryDailyTotal(ctx context.Context, id channel.ID, since time.Time) *channel.Future[channel.DataPoint] {
	return channel.Go(ctx, func(ctx context.Context) (channel.DataPoint, error) {
		return l.Backend.DailyTotal(ctx, id, since)
	})
}
// #endregion local
