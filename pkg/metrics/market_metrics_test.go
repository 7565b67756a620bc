package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luxfi/cdasim/pkg/lx"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.Logger {
	level, _ := log.ToLevel("error")
	return log.NewTestLogger(level)
}

func TestMarketMetricsFromBook(t *testing.T) {
	m := NewMarketMetrics("cdasim", testLogger())
	ob := lx.NewOrderBook(lx.WithReporter(m))

	_, err := ob.Submit(lx.Buy, decimal.NewFromInt(100), 5)
	require.NoError(t, err)
	_, err = ob.Submit(lx.Sell, decimal.RequireFromString("90.5"), 3)
	require.NoError(t, err)
	_, err = ob.Submit(lx.Sell, decimal.NewFromInt(120), 1)
	require.NoError(t, err)
	_, err = ob.Submit(lx.Sell, decimal.NewFromInt(-1), 1)
	require.Error(t, err)

	require.Len(t, ob.MatchOnce(), 1)
	m.ObserveBook(ob.Depth(), ob.Stats())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersSubmitted.WithLabelValues("buy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersSubmitted.WithLabelValues("sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tradesExecuted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tradedVolume))
	assert.Equal(t, 90.5, testutil.ToFloat64(m.lastTradePrice))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookDepth.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookDepth.WithLabelValues("sell")))
}

func TestMarketMetricsObserveMatch(t *testing.T) {
	m := NewMarketMetrics("cdasim", testLogger())
	m.ObserveMatch(2*time.Microsecond, 0)
	m.ObserveMatch(3*time.Microsecond, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.matchAttempts))
	assert.Equal(t, 1, testutil.CollectAndCount(m.matchingLatency))
}

func TestMarketMetricsSystemCollector(t *testing.T) {
	m := NewMarketMetrics("cdasim", testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// samples once before observing cancellation
	m.CollectSystemMetrics(ctx, time.Hour)
	assert.Greater(t, testutil.ToFloat64(m.goroutines), 0.0)
	assert.Greater(t, testutil.ToFloat64(m.memoryUsage), 0.0)
}

func TestMarketMetricsHandler(t *testing.T) {
	m := NewMarketMetrics("cdasim", testLogger())
	m.OnTrade(lx.Trade{Price: decimal.NewFromInt(100), Quantity: 2})

	srv := httptest.NewServer(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cdasim_trades_executed_total 1")
	assert.Contains(t, string(body), "cdasim_traded_volume_total 2")
}
