package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/luxfi/cdasim/pkg/config"
	"github.com/luxfi/cdasim/pkg/engine"
	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/cdasim/pkg/marketdata"
	"github.com/luxfi/cdasim/pkg/metrics"
	"github.com/luxfi/log"
)

func main() {
	cfg := config.Default()
	flags := cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	rootLogger := log.Root()
	if err := flags.Finish(); err != nil {
		rootLogger.Crit("Invalid configuration", "error", err)
		os.Exit(2)
	}

	level, err := log.ToLevel(cfg.LogLevel)
	if err != nil {
		rootLogger.Crit("Invalid log level", "level", cfg.LogLevel, "error", err)
		os.Exit(2)
	}
	logger := log.NewTestLogger(level)

	logger.Info("Continuous double-auction simulator",
		"platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		"cpus", runtime.NumCPU())

	if err := run(cfg, logger); err != nil {
		logger.Crit("Simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporters := []lx.Reporter{marketdata.NewLogReporter(logger)}

	var candles *marketdata.CandleAggregator
	if cfg.CandleInterval > 0 {
		candles = marketdata.NewCandleAggregator(cfg.CandleInterval, logger, nil)
		reporters = append(reporters, candles)
	}

	if cfg.NATSURL != "" {
		nr, err := marketdata.DialNATS(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nr.Close()
		reporters = append(reporters, nr)
	}

	m := metrics.NewMarketMetrics("cdasim", logger)
	reporters = append(reporters, m)

	sim, err := engine.New(cfg, logger,
		engine.WithReporter(marketdata.NewFanout(reporters...)),
		engine.WithMatchObserver(m),
		engine.WithBookObserver(m),
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if cfg.MetricsPort > 0 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Serve(ctx, cfg.MetricsPort)
		}()
		go func() {
			defer wg.Done()
			m.CollectSystemMetrics(ctx, 10*time.Second)
		}()
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sim.Run(ctx)
	cancel()
	wg.Wait()

	if candles != nil {
		candles.Flush()
	}
	logger.Info("Simulation stopped.")
	return nil
}
