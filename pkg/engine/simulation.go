// Package engine runs the market simulation: order producers and the
// matching loop sharing one order book.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/cdasim/pkg/config"
	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
)

// BookObserver receives periodic book statistics.
type BookObserver interface {
	ObserveBook(depth lx.Depth, stats lx.BookStats)
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithReporter sets the reporter that receives order and trade events.
func WithReporter(r lx.Reporter) Option {
	return func(s *Simulation) { s.reporter = r }
}

func WithMatchObserver(o MatchObserver) Option {
	return func(s *Simulation) { s.matchObserver = o }
}

func WithBookObserver(o BookObserver) Option {
	return func(s *Simulation) { s.bookObservers = append(s.bookObservers, o) }
}

// Simulation owns the order book, the producers and the matcher.
type Simulation struct {
	cfg    *config.Config
	logger log.Logger

	reporter      lx.Reporter
	matchObserver MatchObserver
	bookObservers []BookObserver

	book      *lx.OrderBook
	producers []*Producer
	matcher   *Matcher
}

// New builds a simulation from cfg. The book is created here, once.
func New(cfg *config.Config, logger log.Logger, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:    cfg,
		logger: logger.New("module", "simulation"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.book = lx.NewOrderBook(
		lx.WithMatchMode(cfg.MatchMode),
		lx.WithResidualPriority(cfg.ResidualPriority),
		lx.WithReporter(s.reporter),
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	add := func(side lx.Side, n int) {
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s-%d", side, i+1)
			pc := ProducerConfig{
				Side:          side,
				MinPrice:      cfg.MinPrice,
				MaxPrice:      cfg.MaxPrice,
				PriceDecimals: cfg.PriceDecimals,
				MinQuantity:   cfg.MinQuantity,
				MaxQuantity:   cfg.MaxQuantity,
				MinDelay:      cfg.MinDelay,
				MaxDelay:      cfg.MaxDelay,
			}
			s.producers = append(s.producers, NewProducer(name, s.book, pc, seed+int64(len(s.producers)), logger))
		}
	}
	add(lx.Buy, cfg.Buyers)
	add(lx.Sell, cfg.Sellers)

	s.matcher = NewMatcher(s.book, cfg.MatchInterval, s.matchObserver, logger)
	return s, nil
}

// Book returns the shared order book.
func (s *Simulation) Book() *lx.OrderBook { return s.book }

// Producers returns the configured producers.
func (s *Simulation) Producers() []*Producer { return s.producers }

// Run starts every task and blocks until ctx is cancelled and all tasks
// have returned. Resting orders are not drained on shutdown.
func (s *Simulation) Run(ctx context.Context) {
	s.logger.Info("Simulation started",
		"buyers", s.cfg.Buyers,
		"sellers", s.cfg.Sellers,
		"matchInterval", s.cfg.MatchInterval,
		"matchMode", s.cfg.MatchMode,
		"residualPriority", s.cfg.ResidualPriority)

	var wg sync.WaitGroup
	for _, p := range s.producers {
		wg.Add(1)
		go func(p *Producer) {
			defer wg.Done()
			p.Run(ctx)
		}(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.matcher.Run(ctx)
	}()

	if s.cfg.StatsInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reportStats(ctx)
		}()
	}

	wg.Wait()
	s.observe()

	stats := s.book.Stats()
	depth := s.book.Depth()
	s.logger.Info("Simulation stopped",
		"ordersAccepted", stats.OrdersAccepted,
		"ordersRejected", stats.OrdersRejected,
		"trades", stats.Trades,
		"volume", stats.Volume,
		"restingBids", depth.Bids,
		"restingAsks", depth.Asks)
}

func (s *Simulation) reportStats(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, stats := s.observe()
			args := []interface{}{
				"bids", depth.Bids,
				"asks", depth.Asks,
				"trades", stats.Trades,
				"volume", stats.Volume,
			}
			if spread, ok := s.book.Spread(); ok {
				args = append(args, "spread", spread)
			}
			s.logger.Info("Book statistics", args...)
		}
	}
}

func (s *Simulation) observe() (lx.Depth, lx.BookStats) {
	depth := s.book.Depth()
	stats := s.book.Stats()
	for _, o := range s.bookObservers {
		o.ObserveBook(depth, stats)
	}
	return depth, stats
}
