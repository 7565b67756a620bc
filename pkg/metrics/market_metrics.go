package metrics

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MarketMetrics exports order book activity to Prometheus. It is a
// lx.Reporter, and it also observes matching attempts and book depth.
type MarketMetrics struct {
	namespace string
	registry  *prometheus.Registry
	logger    log.Logger

	// Order book metrics
	ordersSubmitted *prometheus.CounterVec
	ordersRejected  prometheus.Gauge
	tradesExecuted  prometheus.Counter
	tradedVolume    prometheus.Counter
	lastTradePrice  prometheus.Gauge
	bookDepth       *prometheus.GaugeVec
	matchAttempts   prometheus.Counter
	matchingLatency prometheus.Histogram

	// System metrics
	memoryUsage prometheus.Gauge
	goroutines  prometheus.Gauge
}

// NewMarketMetrics creates the metrics on a private registry.
func NewMarketMetrics(namespace string, logger log.Logger) *MarketMetrics {
	registry := prometheus.NewRegistry()

	m := &MarketMetrics{
		namespace: namespace,
		registry:  registry,
		logger:    logger.New("module", "metrics"),

		ordersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Total number of orders accepted into the book",
		}, []string{"side"}),

		ordersRejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_rejected",
			Help:      "Orders rejected by validation since start",
		}),

		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of trades executed",
		}),

		tradedVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_volume_total",
			Help:      "Total units traded",
		}),

		lastTradePrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_trade_price",
			Help:      "Execution price of the most recent trade",
		}),

		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orderbook_depth",
			Help:      "Resting orders by side",
		}, []string{"side"}),

		matchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_attempts_total",
			Help:      "Total matching attempts",
		}),

		matchingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matching_latency_seconds",
			Help:      "Duration of one matching attempt",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),

		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Current memory usage in bytes",
		}),

		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines_count",
			Help:      "Current number of goroutines",
		}),
	}

	registry.MustRegister(
		m.ordersSubmitted,
		m.ordersRejected,
		m.tradesExecuted,
		m.tradedVolume,
		m.lastTradePrice,
		m.bookDepth,
		m.matchAttempts,
		m.matchingLatency,
		m.memoryUsage,
		m.goroutines,
	)

	return m
}

// Registry returns the underlying registry.
func (m *MarketMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *MarketMetrics) OnOrder(o lx.Order) {
	m.ordersSubmitted.WithLabelValues(o.Side.String()).Inc()
}

func (m *MarketMetrics) OnTrade(t lx.Trade) {
	m.tradesExecuted.Inc()
	m.tradedVolume.Add(float64(t.Quantity))
	m.lastTradePrice.Set(t.Price.InexactFloat64())
}

// ObserveMatch records one matching attempt.
func (m *MarketMetrics) ObserveMatch(elapsed time.Duration, _ int) {
	m.matchAttempts.Inc()
	m.matchingLatency.Observe(elapsed.Seconds())
}

// ObserveBook updates depth and rejection gauges.
func (m *MarketMetrics) ObserveBook(depth lx.Depth, stats lx.BookStats) {
	m.bookDepth.WithLabelValues(lx.Buy.String()).Set(float64(depth.Bids))
	m.bookDepth.WithLabelValues(lx.Sell.String()).Set(float64(depth.Asks))
	m.ordersRejected.Set(float64(stats.OrdersRejected))
}

// CollectSystemMetrics samples runtime stats until ctx is cancelled.
func (m *MarketMetrics) CollectSystemMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.sampleRuntime()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *MarketMetrics) sampleRuntime() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.memoryUsage.Set(float64(memStats.Alloc))
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// Serve exposes /metrics on port until ctx is cancelled.
func (m *MarketMetrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.logger.Info("Prometheus metrics available",
		"endpoint", "http://localhost:"+strconv.Itoa(port)+"/metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error("Metrics server failed", "error", err)
		return err
	}
	return nil
}
