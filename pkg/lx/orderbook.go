package lx

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MatchMode controls how many trades a single MatchOnce call may execute.
type MatchMode int

const (
	// MatchSingle executes at most one trade per MatchOnce call.
	MatchSingle MatchMode = iota
	// MatchDrain keeps matching until the book is no longer crossed.
	MatchDrain
)

func (m MatchMode) String() string {
	if m == MatchDrain {
		return "drain"
	}
	return "single"
}

// ResidualPriority controls where a partially filled order goes back in
// its queue.
type ResidualPriority int

const (
	// ResidualRequeue re-inserts the residual as if it had just arrived,
	// behind any resting orders at the same price.
	ResidualRequeue ResidualPriority = iota
	// ResidualKeep re-inserts the residual with its original arrival slot.
	ResidualKeep
)

func (r ResidualPriority) String() string {
	if r == ResidualKeep {
		return "keep"
	}
	return "requeue"
}

// Option configures an OrderBook.
type Option func(*OrderBook)

func WithMatchMode(m MatchMode) Option {
	return func(ob *OrderBook) { ob.mode = m }
}

func WithResidualPriority(r ResidualPriority) Option {
	return func(ob *OrderBook) { ob.residual = r }
}

func WithReporter(r Reporter) Option {
	return func(ob *OrderBook) {
		if r != nil {
			ob.reporter = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(ob *OrderBook) {
		if now != nil {
			ob.now = now
		}
	}
}

// OrderBook is a single-instrument book made of a buy queue and a sell
// queue. One mutex guards both queues: matching needs a consistent view of
// the best order on each side.
type OrderBook struct {
	mu    sync.Mutex
	bids  *PriceQueue
	asks  *PriceQueue
	stats BookStats

	lastOrderID uint64
	lastTradeID uint64
	lastSeq     uint64

	mode     MatchMode
	residual ResidualPriority
	reporter Reporter
	now      func() time.Time
}

// NewOrderBook creates an empty order book.
func NewOrderBook(opts ...Option) *OrderBook {
	ob := &OrderBook{
		bids:     NewPriceQueue(Buy),
		asks:     NewPriceQueue(Sell),
		reporter: NopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// Mode returns the configured match mode.
func (ob *OrderBook) Mode() MatchMode { return ob.mode }

// Submit validates and queues a new order, returning its assigned ID.
// Invalid input is rejected with an error wrapping ErrInvalidOrder and
// never reaches a queue.
func (ob *OrderBook) Submit(side Side, price decimal.Decimal, quantity int64) (uint64, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if err := validateOrder(side, price, quantity); err != nil {
		ob.stats.OrdersRejected++
		return 0, err
	}

	ob.lastOrderID++
	order := &Order{
		ID:        ob.lastOrderID,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: ob.now(),
		seq:       ob.nextSeq(),
	}
	ob.queue(side).Push(order)
	ob.stats.OrdersAccepted++

	ob.reporter.OnOrder(*order)
	return order.ID, nil
}

func validateOrder(side Side, price decimal.Decimal, quantity int64) error {
	if !side.Valid() {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, int(side))
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price %s must be positive", ErrInvalidOrder, price)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity %d must be positive", ErrInvalidOrder, quantity)
	}
	return nil
}

// MatchOnce runs the matching step atomically with respect to Submit and
// returns the executed trades, which may be empty. In MatchSingle mode at
// most one trade is executed.
func (ob *OrderBook) MatchOnce() []Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var trades []Trade
	for {
		trade, ok := ob.matchLocked()
		if !ok {
			break
		}
		trades = append(trades, trade)
		if ob.mode == MatchSingle {
			break
		}
	}
	return trades
}

// matchLocked executes one trade between the best buy and best sell if
// they cross. Callers must hold ob.mu.
func (ob *OrderBook) matchLocked() (Trade, bool) {
	bid, ok := ob.bids.Best()
	if !ok {
		return Trade{}, false
	}
	ask, ok := ob.asks.Best()
	if !ok {
		return Trade{}, false
	}
	if bid.Price.LessThan(ask.Price) {
		return Trade{}, false
	}

	// Best() just succeeded on both sides, so these cannot fail.
	_, _ = ob.bids.PopBest()
	_, _ = ob.asks.PopBest()

	qty := min(bid.Quantity, ask.Quantity)
	ob.lastTradeID++
	trade := Trade{
		ID:          ob.lastTradeID,
		Price:       ask.Price,
		Quantity:    qty,
		BuyOrderID:  bid.ID,
		SellOrderID: ask.ID,
		Timestamp:   ob.now(),
	}

	bid.Quantity -= qty
	ask.Quantity -= qty
	ob.requeueResidual(ob.bids, bid)
	ob.requeueResidual(ob.asks, ask)

	ob.stats.Trades++
	ob.stats.Volume += qty

	ob.reporter.OnTrade(trade)
	return trade, true
}

func (ob *OrderBook) requeueResidual(q *PriceQueue, o *Order) {
	if o.Quantity <= 0 {
		return
	}
	if ob.residual == ResidualRequeue {
		o.seq = ob.nextSeq()
	}
	q.Push(o)
}

func (ob *OrderBook) nextSeq() uint64 {
	ob.lastSeq++
	return ob.lastSeq
}

func (ob *OrderBook) queue(side Side) *PriceQueue {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

// BestBid returns a copy of the best resting buy order.
func (ob *OrderBook) BestBid() (Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return bestCopy(ob.bids)
}

// BestAsk returns a copy of the best resting sell order.
func (ob *OrderBook) BestAsk() (Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return bestCopy(ob.asks)
}

func bestCopy(q *PriceQueue) (Order, bool) {
	o, ok := q.Best()
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Spread returns best ask minus best bid. ok is false if either side is empty.
// A negative spread means the book is crossed and waiting for MatchOnce.
func (ob *OrderBook) Spread() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	bid, ok := ob.bids.Best()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := ob.asks.Best()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// Depth returns the number of resting orders per side.
func (ob *OrderBook) Depth() Depth {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return Depth{Bids: ob.bids.Len(), Asks: ob.asks.Len()}
}

// Snapshot returns copies of both queues in priority order.
func (ob *OrderBook) Snapshot() OrderBookSnapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return OrderBookSnapshot{
		Bids:      ob.bids.Orders(),
		Asks:      ob.asks.Orders(),
		Timestamp: ob.now(),
	}
}

// Stats returns the cumulative counters.
func (ob *OrderBook) Stats() BookStats {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.stats
}
