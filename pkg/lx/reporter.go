package lx

// Reporter observes book events. Both methods are called synchronously
// while the book lock is held, in linearization order, so implementations
// must return quickly and must not call back into the OrderBook.
type Reporter interface {
	OnOrder(order Order)
	OnTrade(trade Trade)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) OnOrder(Order) {}
func (NopReporter) OnTrade(Trade) {}

// ReporterFuncs adapts plain functions to Reporter. Nil fields are skipped.
type ReporterFuncs struct {
	Order func(Order)
	Trade func(Trade)
}

func (r ReporterFuncs) OnOrder(o Order) {
	if r.Order != nil {
		r.Order(o)
	}
}

func (r ReporterFuncs) OnTrade(t Trade) {
	if r.Trade != nil {
		r.Trade(t)
	}
}
