package marketdata

import "github.com/luxfi/cdasim/pkg/lx"

// Fanout delivers every event to each reporter in order.
type Fanout []lx.Reporter

// NewFanout drops nil reporters.
func NewFanout(reporters ...lx.Reporter) Fanout {
	f := make(Fanout, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			f = append(f, r)
		}
	}
	return f
}

func (f Fanout) OnOrder(o lx.Order) {
	for _, r := range f {
		r.OnOrder(o)
	}
}

func (f Fanout) OnTrade(t lx.Trade) {
	for _, r := range f {
		r.OnTrade(t)
	}
}
