package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/karishmathakrar/GreenGridPR/internal/config"
	"github.com/karishmathakrar/GreenGridPR/internal/httpapi"
	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/results"
	"github.com/karishmathakrar/GreenGridPR/internal/transport"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "replay-server",
	Short: "Prioritized replay buffer service",
	Long: `replay-server hosts a prioritized replay buffer over gRPC and serves a
read-only admin API with buffer statistics over HTTP.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.Flags()

	flags.String("replay-addr", cfg.ReplayAddr, "gRPC listen address")
	flags.String("admin-addr", cfg.AdminAddr, "HTTP admin listen address")
	flags.Int("buffer-size", cfg.BufferSize, "Replay buffer capacity")
	flags.Float64("alpha", cfg.Alpha, "Priority exponent")
	flags.Uint64("seed", cfg.Seed, "Sampling seed (0 uses the clock)")
	flags.String("results-path", cfg.ResultsPath, "SQLite results file to expose on the admin API (empty disables)")
	flags.Duration("shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	// Bind flags to viper for environment variable support
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	viper.SetEnvPrefix("GREENGRID")
	viper.AutomaticEnv()
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "replay").Logger()

	buffer, err := replay.NewPrioritizedBuffer(cfg.BufferSize, cfg.Alpha, cfg.Source(0))
	if err != nil {
		return err
	}

	var store results.Store
	if cfg.ResultsPath != "" {
		sqlite := results.NewSQLiteStore(cfg.ResultsPath)
		if err := sqlite.Init(cmd.Context()); err != nil {
			return fmt.Errorf("init results store: %w", err)
		}
		defer sqlite.Close()
		store = sqlite
	}

	opts := append(transport.ServerOptions(),
		grpc.UnaryInterceptor(transport.LoggingInterceptor(logger, metrics.NewCollector(logger))),
	)
	grpcServer := grpc.NewServer(opts...)
	transport.RegisterReplayServer(grpcServer, transport.NewReplayService(buffer))

	lis, err := net.Listen("tcp", cfg.ReplayAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ReplayAddr, err)
	}

	adminServer := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           httpapi.NewServer(buffer, store, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Int("capacity", cfg.BufferSize).Msg("replay gRPC server starting")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.AdminAddr).Msg("admin HTTP server starting")
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server: %w", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-sig:
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := adminServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("admin graceful shutdown failed")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-ctx.Done():
		logger.Warn().Msg("shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	case <-stopped:
	}

	logger.Info().Msg("replay server stopped")
	return runErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
