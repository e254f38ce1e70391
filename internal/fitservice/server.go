package fitservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ikstudios/step-counter/internal/channel"
)

// Backend answers data channel requests.
type Backend interface {
	Subscribe(ctx context.Context, id channel.ID) error
	// DailyTotal returns the summed value since the instant, or an empty
	// DataPoint when nothing was recorded.
	DailyTotal(ctx context.Context, id channel.ID, since time.Time) (channel.DataPoint, error)
}

// #region server
// Server exposes a Backend as the data channel gRPC service.
type Server struct {
	backend Backend
	logger  *slog.Logger
}

// NewServer creates a server. A nil logger uses slog.Default.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{backend: backend, logger: logger.With("component", "fitserver")}
}

// Subscribe implements DataChannelServer.
func (s *Server) Subscribe(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	d, err := lookup(in.GetValue())
	if err != nil {
		return nil, err
	}
	if err := s.backend.Subscribe(ctx, d.ID); err != nil {
		s.logger.ErrorContext(ctx, "subscribe failed", "channel", string(d.ID), "error", err)
		return nil, status.Errorf(codes.Internal, "subscribe %s: %v", d.ID, err)
	}
	s.logger.InfoContext(ctx, "subscribed", "channel", string(d.ID))
	return &emptypb.Empty{}, nil
}

// QueryDailyTotal implements DataChannelServer.
func (s *Server) QueryDailyTotal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	d, err := lookup(fields[fieldChannel].GetStringValue())
	if err != nil {
		return nil, err
	}
	since, err := time.Parse(time.RFC3339Nano, fields[fieldSince].GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad %s: %v", fieldSince, err)
	}

	p, err := s.backend.DailyTotal(ctx, d.ID, since)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		s.logger.ErrorContext(ctx, "daily total failed", "channel", string(d.ID), "error", err)
		return nil, status.Errorf(codes.Internal, "daily total %s: %v", d.ID, err)
	}

	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(p.Fields))}
	for k, v := range p.Fields {
		out.Fields[k] = structpb.NewNumberValue(v)
	}
	return out, nil
}

func lookup(raw string) (channel.Descriptor, error) {
	d, ok := channel.Lookup(channel.ID(raw))
	if !ok {
		return channel.Descriptor{}, status.Errorf(codes.InvalidArgument, "unknown channel %q", raw)
	}
	return d, nil
}
// #endregion server
