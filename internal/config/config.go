// Package config holds the settings shared by the greengrid binaries.
package config

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/karishmathakrar/GreenGridPR/internal/agent"
	"github.com/karishmathakrar/GreenGridPR/internal/environment"
	"github.com/karishmathakrar/GreenGridPR/internal/estimator"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/training"
)

// Config holds all greengrid configuration
type Config struct {
	// Environment
	Cells   int    `mapstructure:"cells"`
	Horizon int    `mapstructure:"horizon"`
	Seed    uint64 `mapstructure:"seed"`

	// Estimator network
	Hidden       []int   `mapstructure:"hidden"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Gamma        float64 `mapstructure:"gamma"`

	// Exploration
	Epsilon      float64 `mapstructure:"epsilon"`
	MinEpsilon   float64 `mapstructure:"min_epsilon"`
	EpsilonDecay float64 `mapstructure:"epsilon_decay"`

	// Replay memory
	BufferSize int     `mapstructure:"buffer_size"`
	Alpha      float64 `mapstructure:"alpha"`
	BetaStart  float64 `mapstructure:"beta_start"`
	BetaFrames int     `mapstructure:"beta_frames"`

	// Learning schedule
	BatchSize  int `mapstructure:"batch_size"`
	LearnEvery int `mapstructure:"learn_every"`

	// Episode management
	Episodes     int `mapstructure:"episodes"`
	MaxTimesteps int `mapstructure:"max_timesteps"`
	Window       int `mapstructure:"window"`
	LogEvery     int `mapstructure:"log_every"`

	// Outputs
	ResultsPath  string `mapstructure:"results_path"`
	PlotPath     string `mapstructure:"plot_path"`
	NATSURL      string `mapstructure:"nats_url"`
	EventSubject string `mapstructure:"event_subject"`

	// Replay service
	ReplayAddr      string        `mapstructure:"replay_addr"`
	AdminAddr       string        `mapstructure:"admin_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	grid := environment.DefaultGridConfig()
	network := estimator.DefaultNetworkConfig(0, 0)
	ag := agent.DefaultConfig()
	opts := training.DefaultOptions()

	return &Config{
		Cells:           grid.Cells,
		Horizon:         grid.Horizon,
		Seed:            grid.Seed,
		Hidden:          network.Hidden,
		LearningRate:    network.LearningRate,
		Gamma:           network.Gamma,
		Epsilon:         1.0,
		MinEpsilon:      0.01,
		EpsilonDecay:    0.995,
		BufferSize:      100000,
		Alpha:           replay.DefaultAlpha,
		BetaStart:       ag.BetaStart,
		BetaFrames:      ag.BetaFrames,
		BatchSize:       ag.BatchSize,
		LearnEvery:      ag.LearnEvery,
		Episodes:        opts.Episodes,
		MaxTimesteps:    opts.MaxTimesteps,
		Window:          opts.Window,
		LogEvery:        opts.LogEvery,
		ResultsPath:     "", // in-memory
		PlotPath:        "",
		NATSURL:         "",
		EventSubject:    "greengrid.episodes",
		ReplayAddr:      "localhost:50052",
		AdminAddr:       ":8081",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Cells <= 0 {
		return fmt.Errorf("cells must be positive")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	for _, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer sizes must be positive")
		}
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1]")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative")
	}
	if c.BatchSize > c.BufferSize {
		return fmt.Errorf("batch_size must not exceed buffer_size")
	}
	if c.PlotPath != "" && c.Window <= 0 {
		return fmt.Errorf("window must be positive when plot_path is set")
	}
	if c.NATSURL != "" && c.EventSubject == "" {
		return fmt.Errorf("event_subject is required when nats_url is set")
	}
	if err := c.Agent().Validate(); err != nil {
		return err
	}
	return c.Training().Validate()
}

// ValidateServer checks the settings used by the replay server.
func (c *Config) ValidateServer() error {
	if c.ReplayAddr == "" {
		return fmt.Errorf("replay_addr is required")
	}
	if c.AdminAddr == "" {
		return fmt.Errorf("admin_addr is required")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

// Source returns a random source for the component at offset. A zero seed
// yields nil, which components replace with a clock-seeded source.
func (c *Config) Source(offset uint64) rand.Source {
	if c.Seed == 0 {
		return nil
	}
	return rand.NewSource(c.Seed + offset)
}

// Grid returns the environment settings.
func (c *Config) Grid() environment.GridConfig {
	return environment.GridConfig{Cells: c.Cells, Horizon: c.Horizon, Seed: c.Seed}
}

// Network returns the estimator settings for the given shapes.
func (c *Config) Network(inputSize, outputSize int) estimator.NetworkConfig {
	cfg := estimator.DefaultNetworkConfig(inputSize, outputSize)
	cfg.Hidden = append([]int(nil), c.Hidden...)
	cfg.LearningRate = c.LearningRate
	cfg.Gamma = c.Gamma
	cfg.Seed = c.Seed
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg
}

// Agent returns the learning schedule.
func (c *Config) Agent() agent.Config {
	return agent.Config{
		BatchSize:  c.BatchSize,
		LearnEvery: c.LearnEvery,
		BetaStart:  c.BetaStart,
		BetaFrames: c.BetaFrames,
	}
}

// Training returns the episode loop options.
func (c *Config) Training() training.Options {
	return training.Options{
		Environment:  "grid",
		Episodes:     c.Episodes,
		MaxTimesteps: c.MaxTimesteps,
		Window:       c.Window,
		LogEvery:     c.LogEvery,
	}
}
