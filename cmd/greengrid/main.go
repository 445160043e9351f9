package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/karishmathakrar/GreenGridPR/internal/agent"
	"github.com/karishmathakrar/GreenGridPR/internal/analysis"
	"github.com/karishmathakrar/GreenGridPR/internal/config"
	"github.com/karishmathakrar/GreenGridPR/internal/environment"
	"github.com/karishmathakrar/GreenGridPR/internal/estimator"
	"github.com/karishmathakrar/GreenGridPR/internal/events"
	"github.com/karishmathakrar/GreenGridPR/internal/policy"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/results"
	"github.com/karishmathakrar/GreenGridPR/internal/training"
	"github.com/karishmathakrar/GreenGridPR/internal/transport"
)

var (
	cfg          *config.Config
	cfgFile      string
	evalEpisodes int
	logger       zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "greengrid",
	Short: "Prioritized replay agent for renewable site selection",
	Long: `greengrid trains a value-based agent with prioritized experience replay
to pick the grid cells with the best solar and wind potential.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train an agent and record its episode scores",
	RunE:  runTrain,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Train an agent, then score it on greedy episodes",
	RunE:  runEvaluate,
}

var replayStatsCmd = &cobra.Command{
	Use:   "replay-stats",
	Short: "Print statistics of a running replay server",
	RunE:  runReplayStats,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")

	// Environment settings
	flags.Int("cells", cfg.Cells, "Number of candidate grid cells")
	flags.Int("horizon", cfg.Horizon, "Steps per episode")
	flags.Uint64("seed", cfg.Seed, "Seed for the environment, network and samplers (0 uses the clock)")

	// Estimator settings
	flags.IntSlice("hidden", cfg.Hidden, "Hidden layer sizes")
	flags.Float64("learning-rate", cfg.LearningRate, "Network learning rate")
	flags.Float64("gamma", cfg.Gamma, "Discount factor")

	// Exploration settings
	flags.Float64("epsilon", cfg.Epsilon, "Initial exploration rate")
	flags.Float64("min-epsilon", cfg.MinEpsilon, "Exploration floor")
	flags.Float64("epsilon-decay", cfg.EpsilonDecay, "Multiplicative exploration decay per episode")

	// Replay settings
	flags.Int("buffer-size", cfg.BufferSize, "Replay memory capacity")
	flags.Float64("alpha", cfg.Alpha, "Priority exponent")
	flags.Float64("beta-start", cfg.BetaStart, "Initial importance-sampling exponent")
	flags.Int("beta-frames", cfg.BetaFrames, "Learn steps over which beta anneals to 1")
	flags.Int("batch-size", cfg.BatchSize, "Learning batch size")
	flags.Int("learn-every", cfg.LearnEvery, "Environment steps between learn steps")

	// Episode settings
	flags.Int("episodes", cfg.Episodes, "Training episodes")
	flags.Int("max-timesteps", cfg.MaxTimesteps, "Step cap per episode")
	flags.Int("window", cfg.Window, "Rolling mean window")
	flags.Int("log-every", cfg.LogEvery, "Episodes between progress logs")

	// Outputs
	flags.String("results-path", cfg.ResultsPath, "SQLite file for run results (empty keeps them in memory)")
	flags.String("plot-path", cfg.PlotPath, "PNG file for the score curve (empty disables)")
	flags.String("nats-url", cfg.NATSURL, "NATS server for episode events (empty disables)")
	flags.String("event-subject", cfg.EventSubject, "NATS subject prefix for episode events")
	flags.String("replay-addr", cfg.ReplayAddr, "Replay service address")

	// Logging
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	evaluateCmd.Flags().IntVar(&evalEpisodes, "eval-episodes", 100, "Greedy evaluation episodes")

	// Bind flags to viper for config file and environment variable support
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		}
	})
	viper.SetEnvPrefix("GREENGRID")
	viper.AutomaticEnv()

	rootCmd.AddCommand(trainCmd, evaluateCmd, replayStatsCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	return nil
}

// session owns everything a training or evaluation command creates.
type session struct {
	runner    *training.Runner
	agent     *agent.Agent
	store     results.Store
	publisher *events.NATSPublisher
}

func newSession(ctx context.Context) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	env, err := environment.NewGrid(cfg.Grid())
	if err != nil {
		return nil, err
	}
	network, err := estimator.NewNetwork(cfg.Network(env.ObservationSize(), env.ActionCount()))
	if err != nil {
		return nil, err
	}
	explorer, err := policy.NewEpsilonGreedy(cfg.Epsilon, cfg.MinEpsilon, cfg.EpsilonDecay, network, cfg.Source(1))
	if err != nil {
		return nil, err
	}
	memory, err := replay.NewPrioritizedBuffer(cfg.BufferSize, cfg.Alpha, cfg.Source(2))
	if err != nil {
		return nil, err
	}
	a, err := agent.New(cfg.Agent(), explorer, network, memory, logger)
	if err != nil {
		return nil, err
	}

	s := &session{agent: a}

	s.store = results.NewMemoryStore()
	if cfg.ResultsPath != "" {
		s.store = results.NewSQLiteStore(cfg.ResultsPath)
	}
	if err := s.store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init results store: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		s.publisher, err = events.NewNATSPublisher(cfg.NATSURL, cfg.EventSubject, logger)
		if err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		publisher = s.publisher
	}

	s.runner = training.NewRunner(a, env, s.store, publisher, logger)
	return s, nil
}

func (s *session) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if err := s.store.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close results store")
	}
}

func (s *session) train(ctx context.Context) (training.Scores, error) {
	scores, err := s.runner.Train(ctx, cfg.Training())
	if err != nil {
		return scores, err
	}
	logger.Info().
		Float64("mean_score", scores.Mean()).
		Int("learn_steps", s.agent.LearnSteps()).
		Float64("epsilon", s.agent.Epsilon()).
		Msg("training complete")

	if cfg.PlotPath != "" {
		if err := analysis.PlotScores(cfg.PlotPath, scores, cfg.Window); err != nil {
			return scores, fmt.Errorf("plot scores: %w", err)
		}
		logger.Info().Str("path", cfg.PlotPath).Msg("score curve written")
	}
	return scores, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.train(ctx)
	return err
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.train(ctx); err != nil {
		return err
	}

	opts := cfg.Training()
	opts.Episodes = evalEpisodes
	scores, err := s.runner.Evaluate(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info().
		Int("episodes", len(scores)).
		Float64("mean_score", scores.Mean()).
		Msg("evaluation complete")
	return nil
}

func runReplayStats(cmd *cobra.Command, args []string) error {
	client, err := transport.Dial(cfg.ReplayAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	stats, err := client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetch replay stats from %s: %w", cfg.ReplayAddr, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
