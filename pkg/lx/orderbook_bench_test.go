package lx

import (
	"testing"

	"github.com/shopspring/decimal"
)

func BenchmarkOrderBookSubmit(b *testing.B) {
	ob := NewOrderBook()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ob.Submit(Side(i%2), decimal.NewFromInt(int64(100+i%100)), 1)
	}
}

func BenchmarkOrderBookMatchOnce(b *testing.B) {
	ob := NewOrderBook()

	// Pre-populate order book
	for i := 0; i < 1000; i++ {
		_, _ = ob.Submit(Side(i%2), decimal.NewFromInt(int64(100+i%100)), 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if len(ob.MatchOnce()) == 0 {
			b.StopTimer()
			_, _ = ob.Submit(Buy, decimal.NewFromInt(150), 1)
			_, _ = ob.Submit(Sell, decimal.NewFromInt(50), 1)
			b.StartTimer()
		}
	}
}
