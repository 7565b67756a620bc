package lx

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents order side (buy/sell)
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Valid reports whether s is Buy or Sell.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Errors
var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrEmptyQueue   = errors.New("empty queue")
)

// Order represents a resting limit order for the book's single instrument.
// Price and Side are fixed at creation; Quantity is the unfilled remainder.
type Order struct {
	ID        uint64
	Side      Side
	Price     decimal.Decimal
	Quantity  int64
	Timestamp time.Time

	// arrival sequence, breaks ties between equal prices
	seq uint64
}

// Trade represents an executed trade. Price is always the sell order's price.
type Trade struct {
	ID          uint64
	Price       decimal.Decimal
	Quantity    int64
	BuyOrderID  uint64
	SellOrderID uint64
	Timestamp   time.Time
}

// Notional returns Price * Quantity.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// BookStats are cumulative counters for one order book.
type BookStats struct {
	OrdersAccepted uint64
	OrdersRejected uint64
	Trades         uint64
	Volume         int64
}

// Depth holds the number of resting orders on each side.
type Depth struct {
	Bids int
	Asks int
}

// OrderBookSnapshot is a point-in-time copy of both queues in priority order.
type OrderBookSnapshot struct {
	Bids      []Order
	Asks      []Order
	Timestamp time.Time
}
