// Package marketdata turns order book events into reports: console log
// lines, NATS messages and OHLCV candles.
package marketdata

import (
	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
)

// LogReporter writes one log line per new order and per trade.
type LogReporter struct {
	logger log.Logger
}

func NewLogReporter(logger log.Logger) *LogReporter {
	return &LogReporter{logger: logger.New("module", "tape")}
}

func (r *LogReporter) OnOrder(o lx.Order) {
	r.logger.Info("New order",
		"id", o.ID,
		"side", o.Side,
		"qty", o.Quantity,
		"price", o.Price.StringFixed(2))
}

func (r *LogReporter) OnTrade(t lx.Trade) {
	r.logger.Info("Trade executed",
		"qty", t.Quantity,
		"price", t.Price.StringFixed(2),
		"buyOrder", t.BuyOrderID,
		"sellOrder", t.SellOrderID)
}
