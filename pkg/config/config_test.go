package config

import (
	"flag"
	"testing"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Buyers)
	assert.Equal(t, 1, cfg.Sellers)
	assert.Equal(t, 3*time.Second, cfg.MatchInterval)
	assert.Equal(t, lx.MatchSingle, cfg.MatchMode)
	assert.Equal(t, lx.ResidualRequeue, cfg.ResidualPriority)
}

func TestFlags(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := cfg.RegisterFlags(fs)

	err := fs.Parse([]string{
		"-buyers", "3",
		"-sellers", "2",
		"-min-price", "10.5",
		"-max-price", "20",
		"-match-interval", "250ms",
		"-drain",
		"-keep-priority",
		"-nats", "nats://localhost:4222",
	})
	require.NoError(t, err)
	require.NoError(t, f.Finish())

	assert.Equal(t, 3, cfg.Buyers)
	assert.Equal(t, 2, cfg.Sellers)
	assert.True(t, cfg.MinPrice.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 250*time.Millisecond, cfg.MatchInterval)
	assert.Equal(t, lx.MatchDrain, cfg.MatchMode)
	assert.Equal(t, lx.ResidualKeep, cfg.ResidualPriority)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestFlagsBadPrice(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"-min-price", "abc"}))
	assert.Error(t, f.Finish())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative buyers", func(c *Config) { c.Buyers = -1 }},
		{"zero min price", func(c *Config) { c.MinPrice = decimal.Zero }},
		{"inverted prices", func(c *Config) { c.MaxPrice = decimal.NewFromInt(10) }},
		{"zero min quantity", func(c *Config) { c.MinQuantity = 0 }},
		{"inverted quantities", func(c *Config) { c.MaxQuantity = 0 }},
		{"inverted delays", func(c *Config) { c.MinDelay = 5 * time.Second }},
		{"zero match interval", func(c *Config) { c.MatchInterval = 0 }},
		{"bad metrics port", func(c *Config) { c.MetricsPort = 70000 }},
		{"price rounds to zero", func(c *Config) {
			c.MinPrice = decimal.RequireFromString("0.001")
			c.PriceDecimals = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
