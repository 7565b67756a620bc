// Package config holds the simulator settings and their command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/shopspring/decimal"
)

type Config struct {
	LogLevel string

	// Producers
	Buyers        int
	Sellers       int
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal
	PriceDecimals int32
	MinQuantity   int64
	MaxQuantity   int64
	MinDelay      time.Duration
	MaxDelay      time.Duration
	Seed          int64

	// Matching
	MatchInterval    time.Duration
	MatchMode        lx.MatchMode
	ResidualPriority lx.ResidualPriority

	// Reporting
	CandleInterval time.Duration
	NATSURL        string
	NATSSubject    string
	MetricsPort    int
	StatsInterval  time.Duration
}

// Default returns the settings of the reference simulation: one buyer and
// one seller every 1-3s, prices 50-150, quantities 1-10, matching every 3s.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		Buyers:           1,
		Sellers:          1,
		MinPrice:         decimal.NewFromInt(50),
		MaxPrice:         decimal.NewFromInt(150),
		PriceDecimals:    2,
		MinQuantity:      1,
		MaxQuantity:      10,
		MinDelay:         time.Second,
		MaxDelay:         3 * time.Second,
		MatchInterval:    3 * time.Second,
		MatchMode:        lx.MatchSingle,
		ResidualPriority: lx.ResidualRequeue,
		CandleInterval:   time.Minute,
		NATSSubject:      "cdasim",
		StatsInterval:    30 * time.Second,
	}
}

// RegisterFlags binds c to fs. Call Finish after fs.Parse.
func (c *Config) RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{cfg: c}

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.IntVar(&c.Buyers, "buyers", c.Buyers, "Number of buy order producers")
	fs.IntVar(&c.Sellers, "sellers", c.Sellers, "Number of sell order producers")
	fs.StringVar(&f.minPrice, "min-price", c.MinPrice.String(), "Lowest generated price")
	fs.StringVar(&f.maxPrice, "max-price", c.MaxPrice.String(), "Highest generated price")
	fs.Int64Var(&c.MinQuantity, "min-qty", c.MinQuantity, "Smallest generated quantity")
	fs.Int64Var(&c.MaxQuantity, "max-qty", c.MaxQuantity, "Largest generated quantity")
	fs.DurationVar(&c.MinDelay, "min-delay", c.MinDelay, "Shortest pause between generated orders")
	fs.DurationVar(&c.MaxDelay, "max-delay", c.MaxDelay, "Longest pause between generated orders")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed (0 = time based)")
	fs.DurationVar(&c.MatchInterval, "match-interval", c.MatchInterval, "Pause between matching attempts")
	fs.BoolVar(&f.drain, "drain", c.MatchMode == lx.MatchDrain, "Execute every crossing trade per matching attempt")
	fs.BoolVar(&f.keepPriority, "keep-priority", c.ResidualPriority == lx.ResidualKeep, "Partially filled orders keep their time priority")
	fs.DurationVar(&c.CandleInterval, "candle-interval", c.CandleInterval, "OHLCV candle width (0 disables candles)")
	fs.StringVar(&c.NATSURL, "nats", c.NATSURL, "NATS server URL for publishing events (empty disables)")
	fs.StringVar(&c.NATSSubject, "nats-subject", c.NATSSubject, "NATS subject prefix")
	fs.IntVar(&c.MetricsPort, "metrics-port", c.MetricsPort, "Prometheus metrics port (0 disables)")
	fs.DurationVar(&c.StatsInterval, "stats-interval", c.StatsInterval, "Interval between book statistics log lines (0 disables)")

	return f
}

// Flags carries flag values that need parsing into typed Config fields.
type Flags struct {
	cfg          *Config
	minPrice     string
	maxPrice     string
	drain        bool
	keepPriority bool
}

// Finish copies parsed flag values into the Config and validates it.
func (f *Flags) Finish() error {
	var err error
	if f.cfg.MinPrice, err = decimal.NewFromString(f.minPrice); err != nil {
		return fmt.Errorf("min-price: %w", err)
	}
	if f.cfg.MaxPrice, err = decimal.NewFromString(f.maxPrice); err != nil {
		return fmt.Errorf("max-price: %w", err)
	}
	f.cfg.MatchMode = lx.MatchSingle
	if f.drain {
		f.cfg.MatchMode = lx.MatchDrain
	}
	f.cfg.ResidualPriority = lx.ResidualRequeue
	if f.keepPriority {
		f.cfg.ResidualPriority = lx.ResidualKeep
	}
	return f.cfg.Validate()
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks ranges and counts.
func (c *Config) Validate() error {
	switch {
	case c.Buyers < 0 || c.Sellers < 0:
		return fmt.Errorf("%w: producer counts must not be negative", ErrInvalidConfig)
	case !c.MinPrice.IsPositive():
		return fmt.Errorf("%w: min price %s must be positive", ErrInvalidConfig, c.MinPrice)
	case c.MaxPrice.LessThan(c.MinPrice):
		return fmt.Errorf("%w: max price %s below min price %s", ErrInvalidConfig, c.MaxPrice, c.MinPrice)
	case c.PriceDecimals < 0:
		return fmt.Errorf("%w: price decimals %d must not be negative", ErrInvalidConfig, c.PriceDecimals)
	case c.MinQuantity <= 0:
		return fmt.Errorf("%w: min quantity %d must be positive", ErrInvalidConfig, c.MinQuantity)
	case c.MaxQuantity < c.MinQuantity:
		return fmt.Errorf("%w: max quantity %d below min quantity %d", ErrInvalidConfig, c.MaxQuantity, c.MinQuantity)
	case c.MinDelay < 0 || c.MaxDelay < c.MinDelay:
		return fmt.Errorf("%w: delay range [%s, %s]", ErrInvalidConfig, c.MinDelay, c.MaxDelay)
	case c.MatchInterval <= 0:
		return fmt.Errorf("%w: match interval must be positive", ErrInvalidConfig)
	case c.CandleInterval < 0 || c.StatsInterval < 0:
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalidConfig)
	case c.MetricsPort < 0 || c.MetricsPort > 65535:
		return fmt.Errorf("%w: metrics port %d out of range", ErrInvalidConfig, c.MetricsPort)
	}

	// the smallest representable price step must still be positive
	if !c.MinPrice.Round(c.PriceDecimals).IsPositive() {
		return fmt.Errorf("%w: min price %s rounds to zero at %d decimals", ErrInvalidConfig, c.MinPrice, c.PriceDecimals)
	}
	return nil
}
