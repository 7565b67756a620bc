package marketdata

import (
	"encoding/json"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// OrderEvent is the JSON body published on <prefix>.orders.
type OrderEvent struct {
	ID        uint64          `json:"id"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeEvent is the JSON body published on <prefix>.trades.
type TradeEvent struct {
	ID          uint64          `json:"id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	BuyOrderID  uint64          `json:"buy_order_id"`
	SellOrderID uint64          `json:"sell_order_id"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NATSReporter publishes order and trade events. nats.Conn buffers
// publishes, so the call returns without waiting on the network.
type NATSReporter struct {
	pub        Publisher
	ordersSubj string
	tradesSubj string
	logger     log.Logger
	close      func()
}

// NewNATSReporter publishes through pub under the given subject prefix.
func NewNATSReporter(pub Publisher, prefix string, logger log.Logger) *NATSReporter {
	return &NATSReporter{
		pub:        pub,
		ordersSubj: prefix + ".orders",
		tradesSubj: prefix + ".trades",
		logger:     logger.New("module", "nats"),
		close:      func() {},
	}
}

// DialNATS connects to url and returns a reporter owning the connection.
func DialNATS(url, prefix string, logger log.Logger) (*NATSReporter, error) {
	nc, err := nats.Connect(url, nats.Name("cdasim"))
	if err != nil {
		return nil, err
	}
	r := NewNATSReporter(nc, prefix, logger)
	r.close = func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	r.logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "prefix", prefix)
	return r, nil
}

func (r *NATSReporter) OnOrder(o lx.Order) {
	r.publish(r.ordersSubj, OrderEvent{
		ID:        o.ID,
		Side:      o.Side.String(),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Timestamp: o.Timestamp,
	})
}

func (r *NATSReporter) OnTrade(t lx.Trade) {
	r.publish(r.tradesSubj, TradeEvent{
		ID:          t.ID,
		Price:       t.Price,
		Quantity:    t.Quantity,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Timestamp:   t.Timestamp,
	})
}

func (r *NATSReporter) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("Failed to encode event", "subject", subject, "error", err)
		return
	}
	if err := r.pub.Publish(subject, data); err != nil {
		r.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// Close drains and closes the connection if the reporter owns one.
func (r *NATSReporter) Close() {
	r.close()
}
