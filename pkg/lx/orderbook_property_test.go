package lx

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// drawPrice draws a two-decimal price in [0.01, 200.00].
func drawPrice(t *rapid.T, label string) decimal.Decimal {
	cents := rapid.Int64Range(1, 20000).Draw(t, label)
	return decimal.New(cents, -2)
}

func TestPropertyBestIsExtremePrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := NewOrderBook()
		n := rapid.IntRange(1, 50).Draw(t, "n")

		var maxBid, minAsk decimal.Decimal
		var haveBid, haveAsk bool
		for i := 0; i < n; i++ {
			side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
			price := drawPrice(t, "price")
			if _, err := ob.Submit(side, price, 1); err != nil {
				t.Fatalf("submit: %v", err)
			}
			if side == Buy && (!haveBid || price.GreaterThan(maxBid)) {
				maxBid, haveBid = price, true
			}
			if side == Sell && (!haveAsk || price.LessThan(minAsk)) {
				minAsk, haveAsk = price, true
			}
		}

		bid, ok := ob.BestBid()
		if ok != haveBid || (ok && !bid.Price.Equal(maxBid)) {
			t.Fatalf("best bid %v (ok=%v), want %v (ok=%v)", bid.Price, ok, maxBid, haveBid)
		}
		ask, ok := ob.BestAsk()
		if ok != haveAsk || (ok && !ask.Price.Equal(minAsk)) {
			t.Fatalf("best ask %v (ok=%v), want %v (ok=%v)", ask.Price, ok, minAsk, haveAsk)
		}
	})
}

func TestPropertyCrossingAndConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := NewOrderBook()
		bidPrice := drawPrice(t, "bidPrice")
		askPrice := drawPrice(t, "askPrice")
		bidQty := rapid.Int64Range(1, 100).Draw(t, "bidQty")
		askQty := rapid.Int64Range(1, 100).Draw(t, "askQty")

		buyID, _ := ob.Submit(Buy, bidPrice, bidQty)
		sellID, _ := ob.Submit(Sell, askPrice, askQty)
		before := ob.Snapshot()

		trades := ob.MatchOnce()

		if bidPrice.LessThan(askPrice) {
			if len(trades) != 0 {
				t.Fatalf("bid %s < ask %s but got %d trades", bidPrice, askPrice, len(trades))
			}
			after := ob.Snapshot()
			if len(after.Bids) != len(before.Bids) || len(after.Asks) != len(before.Asks) ||
				after.Bids[0].Quantity != bidQty || after.Asks[0].Quantity != askQty {
				t.Fatalf("book changed without a cross")
			}
			return
		}

		if len(trades) != 1 {
			t.Fatalf("bid %s >= ask %s but got %d trades", bidPrice, askPrice, len(trades))
		}
		tr := trades[0]
		want := min(bidQty, askQty)
		if tr.Quantity != want {
			t.Fatalf("trade qty %d, want %d", tr.Quantity, want)
		}
		if !tr.Price.Equal(askPrice) {
			t.Fatalf("trade price %s, want ask price %s", tr.Price, askPrice)
		}

		remainingBuy := remaining(ob, Buy, buyID)
		remainingSell := remaining(ob, Sell, sellID)
		if remainingBuy+tr.Quantity != bidQty {
			t.Fatalf("buy not conserved: %d + %d != %d", remainingBuy, tr.Quantity, bidQty)
		}
		if remainingSell+tr.Quantity != askQty {
			t.Fatalf("sell not conserved: %d + %d != %d", remainingSell, tr.Quantity, askQty)
		}
	})
}

func TestPropertyNoZeroQuantityResting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mode := MatchMode(rapid.IntRange(0, 1).Draw(t, "mode"))
		ob := NewOrderBook(WithMatchMode(mode))
		steps := rapid.IntRange(1, 80).Draw(t, "steps")

		var submitted, traded int64
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "match") {
				for _, tr := range ob.MatchOnce() {
					traded += tr.Quantity
				}
				continue
			}
			side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
			qty := rapid.Int64Range(1, 10).Draw(t, "qty")
			if _, err := ob.Submit(side, drawPrice(t, "price"), qty); err != nil {
				t.Fatalf("submit: %v", err)
			}
			submitted += qty
		}

		snap := ob.Snapshot()
		var resting int64
		for _, o := range append(snap.Bids, snap.Asks...) {
			if o.Quantity <= 0 {
				t.Fatalf("order %d resting with quantity %d", o.ID, o.Quantity)
			}
			resting += o.Quantity
		}
		// each traded unit consumes one unit from a buy and one from a sell
		if resting+2*traded != submitted {
			t.Fatalf("quantity not conserved: resting %d + 2*traded %d != submitted %d", resting, traded, submitted)
		}
	})
}

func remaining(ob *OrderBook, side Side, id uint64) int64 {
	snap := ob.Snapshot()
	orders := snap.Bids
	if side == Sell {
		orders = snap.Asks
	}
	for _, o := range orders {
		if o.ID == id {
			return o.Quantity
		}
	}
	return 0
}
