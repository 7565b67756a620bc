package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
	"github.com/shopspring/decimal"
)

// Submitter accepts new orders.
type Submitter interface {
	Submit(side lx.Side, price decimal.Decimal, quantity int64) (uint64, error)
}

// ProducerConfig bounds the orders a Producer generates.
type ProducerConfig struct {
	Side          lx.Side
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal
	PriceDecimals int32
	MinQuantity   int64
	MaxQuantity   int64
	MinDelay      time.Duration
	MaxDelay      time.Duration
}

// Producer generates random orders for one side at random intervals.
type Producer struct {
	name   string
	cfg    ProducerConfig
	book   Submitter
	rng    *rand.Rand
	logger log.Logger

	submitted uint64
	rejected  uint64
}

// NewProducer creates a producer with its own random source.
func NewProducer(name string, book Submitter, cfg ProducerConfig, seed int64, logger log.Logger) *Producer {
	return &Producer{
		name:   name,
		cfg:    cfg,
		book:   book,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.New("producer", name),
	}
}

func (p *Producer) Name() string { return p.name }

// Next draws the price and quantity of the next order.
func (p *Producer) Next() (decimal.Decimal, int64) {
	span := p.cfg.MaxPrice.Sub(p.cfg.MinPrice)
	price := p.cfg.MinPrice.Add(span.Mul(decimal.NewFromFloat(p.rng.Float64()))).Round(p.cfg.PriceDecimals)
	if price.LessThan(p.cfg.MinPrice) {
		price = p.cfg.MinPrice
	}
	if price.GreaterThan(p.cfg.MaxPrice) {
		price = p.cfg.MaxPrice
	}

	qty := p.cfg.MinQuantity + p.rng.Int63n(p.cfg.MaxQuantity-p.cfg.MinQuantity+1)
	return price, qty
}

// NextDelay draws the pause before the next order.
func (p *Producer) NextDelay() time.Duration {
	span := int64(p.cfg.MaxDelay - p.cfg.MinDelay)
	if span <= 0 {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(p.rng.Int63n(span+1))
}

// Step generates and submits a single order.
func (p *Producer) Step() (uint64, error) {
	price, qty := p.Next()
	id, err := p.book.Submit(p.cfg.Side, price, qty)
	if err != nil {
		p.rejected++
		p.logger.Warn("Order rejected", "side", p.cfg.Side, "price", price, "qty", qty, "error", err)
		return 0, err
	}
	p.submitted++
	return id, nil
}

// Run submits orders until ctx is cancelled. The pause between orders is
// interruptible, so Run returns promptly after cancellation.
func (p *Producer) Run(ctx context.Context) {
	p.logger.Debug("Producer started", "side", p.cfg.Side)
	defer func() {
		p.logger.Debug("Producer stopped", "submitted", p.submitted, "rejected", p.rejected)
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		_, _ = p.Step()

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.NextDelay()):
		}
	}
}
