package engine

import (
	"context"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
)

// Matchable is the part of the order book the matching loop drives.
type Matchable interface {
	MatchOnce() []lx.Trade
}

// MatchObserver is told how long each matching attempt took.
type MatchObserver interface {
	ObserveMatch(elapsed time.Duration, trades int)
}

// Matcher calls MatchOnce on a fixed interval. The book lock is only held
// inside MatchOnce, never across the wait between attempts.
type Matcher struct {
	book     Matchable
	interval time.Duration
	observer MatchObserver
	logger   log.Logger
}

// NewMatcher creates a matching loop. observer may be nil.
func NewMatcher(book Matchable, interval time.Duration, observer MatchObserver, logger log.Logger) *Matcher {
	return &Matcher{
		book:     book,
		interval: interval,
		observer: observer,
		logger:   logger.New("module", "matcher"),
	}
}

// Step runs one matching attempt.
func (m *Matcher) Step() []lx.Trade {
	start := time.Now()
	trades := m.book.MatchOnce()
	if m.observer != nil {
		m.observer.ObserveMatch(time.Since(start), len(trades))
	}
	if len(trades) > 0 {
		m.logger.Debug("Matching attempt executed trades", "trades", len(trades))
	}
	return trades
}

// Run matches until ctx is cancelled.
func (m *Matcher) Run(ctx context.Context) {
	m.logger.Debug("Matcher started", "interval", m.interval)
	defer m.logger.Debug("Matcher stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Step()
		}
	}
}
