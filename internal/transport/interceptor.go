package transport

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
)

// LoggingInterceptor logs every unary call and reports it to the collector.
func LoggingInterceptor(logger zerolog.Logger, collector *metrics.Collector) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		if collector != nil {
			collector.ReplayRequest(info.FullMethod, err == nil, duration)
		}

		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Str("code", status.Code(err).String()).Err(err)
		}
		event.Str("method", info.FullMethod).Dur("duration", duration).Msg("gRPC request")

		return resp, err
	}
}
