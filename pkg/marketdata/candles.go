package marketdata

import (
	"sync"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
	"github.com/shopspring/decimal"
)

// Candle represents OHLCV data for one interval.
type Candle struct {
	OpenTime  time.Time       `json:"openTime"`
	CloseTime time.Time       `json:"closeTime"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Trades    int             `json:"trades"`
}

// maxCompletedCandles bounds the completed history kept in memory.
const maxCompletedCandles = 1440

// CandleAggregator builds OHLCV candles from the trade stream. A candle is
// completed when the first trade of a later interval arrives, or on Flush.
type CandleAggregator struct {
	interval time.Duration
	logger   log.Logger
	onClose  func(Candle)

	mu        sync.Mutex
	current   *Candle
	completed []Candle
}

// NewCandleAggregator creates an aggregator. onClose, if non-nil, is called
// with every completed candle.
func NewCandleAggregator(interval time.Duration, logger log.Logger, onClose func(Candle)) *CandleAggregator {
	return &CandleAggregator{
		interval: interval,
		logger:   logger.New("module", "candles"),
		onClose:  onClose,
	}
}

func (a *CandleAggregator) OnOrder(lx.Order) {}

func (a *CandleAggregator) OnTrade(t lx.Trade) {
	a.mu.Lock()
	defer a.mu.Unlock()

	openTime := t.Timestamp.Truncate(a.interval)
	c := a.current
	if c != nil && !openTime.Equal(c.OpenTime) {
		a.completeLocked()
		c = nil
	}

	if c == nil {
		a.current = &Candle{
			OpenTime:  openTime,
			CloseTime: openTime.Add(a.interval),
			Open:      t.Price,
			High:      t.Price,
			Low:       t.Price,
			Close:     t.Price,
			Volume:    t.Quantity,
			Trades:    1,
		}
		return
	}

	c.High = decimal.Max(c.High, t.Price)
	c.Low = decimal.Min(c.Low, t.Price)
	c.Close = t.Price
	c.Volume += t.Quantity
	c.Trades++
}

// Current returns the open candle, if any.
func (a *CandleAggregator) Current() (Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return Candle{}, false
	}
	return *a.current, true
}

// Completed returns all completed candles, oldest first.
func (a *CandleAggregator) Completed() []Candle {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Candle, len(a.completed))
	copy(out, a.completed)
	return out
}

// Flush completes the open candle.
func (a *CandleAggregator) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.completeLocked()
	}
}

func (a *CandleAggregator) completeLocked() {
	c := *a.current
	a.current = nil
	a.completed = append(a.completed, c)
	if len(a.completed) > maxCompletedCandles {
		a.completed = a.completed[len(a.completed)-maxCompletedCandles:]
	}

	a.logger.Info("Candle closed",
		"open", c.Open.StringFixed(2),
		"high", c.High.StringFixed(2),
		"low", c.Low.StringFixed(2),
		"close", c.Close.StringFixed(2),
		"volume", c.Volume,
		"trades", c.Trades,
		"start", c.OpenTime.Format(time.RFC3339))

	if a.onClose != nil {
		a.onClose(c)
	}
}
