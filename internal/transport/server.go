// Package transport exposes a prioritized replay buffer over gRPC.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

const (
	serviceName            = "greengrid.replay.v1.Replay"
	addMethod              = "/" + serviceName + "/Add"
	sampleMethod           = "/" + serviceName + "/Sample"
	updatePrioritiesMethod = "/" + serviceName + "/UpdatePriorities"
	statsMethod            = "/" + serviceName + "/Stats"
)

// ReplayServer is the server API for the Replay service.
type ReplayServer interface {
	Add(context.Context, *AddRequest) (*AddResponse, error)
	Sample(context.Context, *SampleRequest) (*SampleResponse, error)
	UpdatePriorities(context.Context, *UpdatePrioritiesRequest) (*UpdatePrioritiesResponse, error)
	Stats(context.Context, *StatsRequest) (*StatsResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReplayServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Add",
			Handler: unary(addMethod, func(s ReplayServer, ctx context.Context, in *AddRequest) (any, error) {
				return s.Add(ctx, in)
			}),
		},
		{
			MethodName: "Sample",
			Handler: unary(sampleMethod, func(s ReplayServer, ctx context.Context, in *SampleRequest) (any, error) {
				return s.Sample(ctx, in)
			}),
		},
		{
			MethodName: "UpdatePriorities",
			Handler: unary(updatePrioritiesMethod, func(s ReplayServer, ctx context.Context, in *UpdatePrioritiesRequest) (any, error) {
				return s.UpdatePriorities(ctx, in)
			}),
		},
		{
			MethodName: "Stats",
			Handler: unary(statsMethod, func(s ReplayServer, ctx context.Context, in *StatsRequest) (any, error) {
				return s.Stats(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/replay/v1/replay.proto",
}

// unary adapts a typed call to the handler signature grpc.MethodDesc expects.
func unary[Req any](method string, call func(ReplayServer, context.Context, *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReplayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ReplayServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterReplayServer registers srv on s. The server must be created with
// ServerOptions so requests are decoded with Codec.
func RegisterReplayServer(s grpc.ServiceRegistrar, srv ReplayServer) {
	s.RegisterService(&serviceDesc, srv)
}

// ServerOptions returns the options a grpc.Server needs to host the service.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.ForceServerCodec(Codec{})}
}

// ReplayService implements the Replay gRPC service
type ReplayService struct {
	buffer *replay.PrioritizedBuffer
}

var _ ReplayServer = (*ReplayService)(nil)

// NewReplayService creates a new ReplayService
func NewReplayService(buffer *replay.PrioritizedBuffer) *ReplayService {
	return &ReplayService{
		buffer: buffer,
	}
}

// Add stores transitions
func (s *ReplayService) Add(ctx context.Context, req *AddRequest) (*AddResponse, error) {
	if len(req.Priorities) != 0 && len(req.Priorities) != len(req.Transitions) {
		err := fmt.Errorf("%d transitions vs %d priorities: %w", len(req.Transitions), len(req.Priorities), replay.ErrArityMismatch)
		return nil, toStatus(err)
	}

	for i, t := range fromWireTransitions(req.Transitions) {
		priority := replay.DefaultPriority
		if len(req.Priorities) != 0 {
			priority = req.Priorities[i]
		}
		s.buffer.Add(t, priority)
	}

	return &AddResponse{Len: int64(s.buffer.Len())}, nil
}

// Sample samples a prioritized batch for training
func (s *ReplayService) Sample(ctx context.Context, req *SampleRequest) (*SampleResponse, error) {
	batch, err := s.buffer.Sample(int(req.BatchSize), req.Beta)
	if err != nil {
		return nil, toStatus(err)
	}

	return &SampleResponse{
		Transitions: toWireTransitions(batch.Transitions),
		Indices:     batch.Indices,
		Weights:     batch.Weights,
	}, nil
}

// UpdatePriorities updates transition priorities after a learning step
func (s *ReplayService) UpdatePriorities(ctx context.Context, req *UpdatePrioritiesRequest) (*UpdatePrioritiesResponse, error) {
	if err := s.buffer.UpdatePriorities(req.Indices, req.Priorities); err != nil {
		return nil, toStatus(err)
	}
	return &UpdatePrioritiesResponse{Updated: int64(len(req.Indices))}, nil
}

// Stats returns replay buffer statistics
func (s *ReplayService) Stats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	stats := s.buffer.Stats()
	return &StatsResponse{
		Len:           int64(stats.Len),
		Capacity:      int64(stats.Capacity),
		Alpha:         stats.Alpha,
		TotalPriority: stats.TotalPriority,
		MinPriority:   stats.MinPriority,
		MaxPriority:   stats.MaxPriority,
		Full:          stats.Full,
	}, nil
}

// statusErrors pairs each buffer error with the status code it travels as.
var statusErrors = []struct {
	err  error
	code codes.Code
}{
	{replay.ErrInsufficientData, codes.FailedPrecondition},
	{replay.ErrInvalidPriorityState, codes.Aborted},
	{replay.ErrIndexOutOfRange, codes.OutOfRange},
	{replay.ErrArityMismatch, codes.InvalidArgument},
	{replay.ErrInvalidBatchSize, codes.InvalidArgument},
}

func toStatus(err error) error {
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return status.Error(se.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus restores the buffer error carried by a status so callers can
// use errors.Is on either side of the connection.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, se := range statusErrors {
		if st.Code() != se.code || !strings.HasSuffix(msg, se.err.Error()) {
			continue
		}
		detail := strings.TrimSuffix(strings.TrimSuffix(msg, se.err.Error()), ": ")
		if detail == "" {
			return se.err
		}
		return fmt.Errorf("%s: %w", detail, se.err)
	}
	return err
}
