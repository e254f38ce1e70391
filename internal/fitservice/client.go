package fitservice

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ikstudios/step-counter/internal/channel"
)

// #region client-struct
// Client is a channel.Service backed by a remote data channel server.
// Each call runs on its own goroutine and completes a future.
type Client struct {
	conn   *grpc.ClientConn
	client DataChannelClient
}
// #endregion client-struct

// #region constructor
// NewClient connects to the data channel server at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewDataChannelClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewClientWithService(svc DataChannelClient) *Client {
	return &Client{client: svc}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region subscribe
// Subscribe asks the server to start recording id.
func (c *Client) Subscribe(ctx context.Context, id channel.ID) *channel.Future[struct{}] {
	return channel.Go(ctx, func(ctx context.Context) (struct{}, error) {
		if _, err := c.client.Subscribe(ctx, wrapperspb.String(string(id))); err != nil {
			return struct{}{}, fmt.Errorf("subscribe rpc: %w", err)
		}
		return struct{}{}, nil
	})
}
// #endregion subscribe

// #region query
// QueryDailyTotal fetches the aggregated total of id since the given
// instant. An empty response means the server had no data point.
func (c *Client) QueryDailyTotal(ctx context.Context, id channel.ID, since time.Time) *channel.Future[channel.DataPoint] {
	return channel.Go(ctx, func(ctx context.Context) (channel.DataPoint, error) {
		req, err := structpb.NewStruct(map[string]interface{}{
			fieldChannel: string(id),
			fieldSince:   since.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return channel.DataPoint{}, fmt.Errorf("build query: %w", err)
		}
		resp, err := c.client.QueryDailyTotal(ctx, req)
		if err != nil {
			return channel.DataPoint{}, fmt.Errorf("query rpc: %w", err)
		}
		return decodeDataPoint(resp), nil
	})
}

func decodeDataPoint(s *structpb.Struct) channel.DataPoint {
	fields := s.GetFields()
	if len(fields) == 0 {
		return channel.DataPoint{}
	}
	p := channel.DataPoint{Fields: make(map[string]float64, len(fields))}
	for k, v := range fields {
		if n, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
			p.Fields[k] = n.NumberValue
		}
	}
	return p
}
// #endregion query
