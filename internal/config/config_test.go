package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 16, cfg.Grid().Cells)
	assert.Equal(t, 0.6, cfg.Alpha)
	assert.Equal(t, "grid", cfg.Training().Environment)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no cells", func(c *Config) { c.Cells = 0 }},
		{"no horizon", func(c *Config) { c.Horizon = -1 }},
		{"bad hidden", func(c *Config) { c.Hidden = []int{64, 0} }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"gamma above one", func(c *Config) { c.Gamma = 1.5 }},
		{"no buffer", func(c *Config) { c.BufferSize = 0 }},
		{"negative alpha", func(c *Config) { c.Alpha = -0.1 }},
		{"batch larger than buffer", func(c *Config) { c.BufferSize = 8; c.BatchSize = 16 }},
		{"no episodes", func(c *Config) { c.Episodes = 0 }},
		{"no learn cadence", func(c *Config) { c.LearnEvery = 0 }},
		{"plot without window", func(c *Config) { c.PlotPath = "out.png"; c.Window = 0 }},
		{"nats without subject", func(c *Config) { c.NATSURL = "nats://localhost:4222"; c.EventSubject = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNetworkCopiesHidden(t *testing.T) {
	cfg := Default()
	cfg.Seed = 42
	cfg.Hidden = []int{8}
	network := cfg.Network(5, 4)
	network.Hidden[0] = 99

	assert.Equal(t, []int{8}, cfg.Hidden)
	assert.Equal(t, 5, network.InputSize)
	assert.Equal(t, 4, network.OutputSize)
	assert.Equal(t, uint64(42), network.Seed)
}

func TestZeroSeedUsesClock(t *testing.T) {
	cfg := Default()
	cfg.Seed = 0
	assert.Nil(t, cfg.Source(1))
	assert.NotZero(t, cfg.Network(5, 4).Seed)

	cfg.Seed = 7
	a, b := cfg.Source(1), cfg.Source(1)
	require.NotNil(t, a)
	assert.Equal(t, a.Uint64(), b.Uint64())
}

func TestValidateServer(t *testing.T) {
	require.NoError(t, Default().ValidateServer())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative alpha", func(c *Config) { c.Alpha = -1 }},
		{"no buffer", func(c *Config) { c.BufferSize = 0 }},
		{"no replay addr", func(c *Config) { c.ReplayAddr = "" }},
		{"no admin addr", func(c *Config) { c.AdminAddr = "" }},
		{"no shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.ValidateServer())
		})
	}
}
