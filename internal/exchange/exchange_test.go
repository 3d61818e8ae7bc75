package exchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/exchange"
	"tradercore/internal/models"
	"tradercore/internal/ratelimit"
	"tradercore/internal/retry"
)

func newTestConnector() *exchange.PaperConnector {
	return exchange.NewPaperConnector(
		exchange.Config{Exchange: "BINANCE", Testnet: true},
		ratelimit.Config{RequestsPerSecond: 100, BurstCapacity: 100},
		retry.NONE,
	)
}

func TestPaperConnector_ConnectLifecycle(t *testing.T) {
	c := newTestConnector()
	ctx := context.Background()

	if c.IsConnected() {
		t.Fatal("expected not connected before Connect")
	}
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !c.IsConnected() {
		t.Error("expected connected after Connect")
	}
	if err := c.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if c.IsConnected() {
		t.Error("expected not connected after Disconnect")
	}
}

func TestPaperConnector_MarketOrderFillsAtTickerPrice(t *testing.T) {
	c := newTestConnector()
	ctx := context.Background()
	c.SeedPrice("BTCUSDT", decimal.NewFromInt(50000))

	order, err := c.PlaceOrder(ctx, models.Order{
		Symbol:   "BTCUSDT",
		Side:     models.SideLong,
		Type:     models.OrderMarket,
		Quantity: decimal.NewFromFloat(0.1),
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if order.Status != models.OrderStatusFilled {
		t.Fatalf("expected FILLED, got %s", order.Status)
	}
	if !order.AveragePrice.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected fill at 50000, got %s", order.AveragePrice)
	}

	pos, err := c.GetPosition(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if pos == nil {
		t.Fatal("expected a position to open after a filled order")
	}
	if !pos.Quantity.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("expected position quantity 0.1, got %s", pos.Quantity)
	}
}

func TestPaperConnector_GetTickerWithoutSeedFails(t *testing.T) {
	c := newTestConnector()
	if _, err := c.GetTicker(context.Background(), "ETHUSDT"); err == nil {
		t.Error("expected error for unseeded symbol")
	}
}

func TestPaperConnector_GetCandlesticksReturnsRequestedLimit(t *testing.T) {
	c := newTestConnector()
	c.SeedPrice("BTCUSDT", decimal.NewFromInt(50000))

	candles, err := c.GetCandlesticks(context.Background(), "BTCUSDT", models.Interval1h, 30)
	if err != nil {
		t.Fatalf("GetCandlesticks failed: %v", err)
	}
	if len(candles) != 30 {
		t.Errorf("expected 30 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			t.Fatalf("candles must be strictly increasing by openTime at index %d", i)
		}
	}
}

func TestPaperConnector_SubscribeCandlesClosesOnCancel(t *testing.T) {
	c := newTestConnector()
	c.SeedPrice("BTCUSDT", decimal.NewFromInt(50000))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.SubscribeCandles(ctx, "BTCUSDT", models.Interval("100ms-test"))
	if err != nil {
		t.Fatalf("SubscribeCandles failed: %v", err)
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// a candle may have raced the cancellation; drain until closed
			for range ch {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected channel to close after context cancellation")
	}
}

func TestNormalizeSymbol_Bitget(t *testing.T) {
	if got := exchange.NormalizeSymbol("BITGET", "BTCUSDT"); got != "BTC_USDT" {
		t.Errorf("NormalizeSymbol(BITGET, BTCUSDT) = %s, want BTC_USDT", got)
	}
	if got := exchange.DenormalizeSymbol("BITGET", "BTC_USDT"); got != "BTCUSDT" {
		t.Errorf("DenormalizeSymbol(BITGET, BTC_USDT) = %s, want BTCUSDT", got)
	}
}

func TestNormalizeSymbol_Binance_NoOp(t *testing.T) {
	if got := exchange.NormalizeSymbol("BINANCE", "BTCUSDT"); got != "BTCUSDT" {
		t.Errorf("expected no-op normalization for BINANCE, got %s", got)
	}
}

func TestAuthenticator_RejectsEmptyCredentials(t *testing.T) {
	if _, err := exchange.NewAuthenticator("", "secret", ""); err != exchange.ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials for empty key, got %v", err)
	}
	if _, err := exchange.NewAuthenticator("key", "", ""); err != exchange.ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials for empty secret, got %v", err)
	}
}

func TestAuthenticator_SignProducesHeaders(t *testing.T) {
	auth, err := exchange.NewAuthenticator("key123", "secret456", "pass789")
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}
	headers := auth.Sign("POST", "/api/v1/order", `{"symbol":"BTCUSDT"}`)

	if headers.AccessKey != "key123" {
		t.Errorf("expected AccessKey key123, got %s", headers.AccessKey)
	}
	if headers.AccessPassphrase != "pass789" {
		t.Errorf("expected AccessPassphrase pass789, got %s", headers.AccessPassphrase)
	}
	if headers.AccessSign == "" {
		t.Error("expected a non-empty signature")
	}
	if headers.ContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", headers.ContentType)
	}

	// Same inputs at a different instant produce a different signature
	// because the timestamp is part of the canonical string.
	time.Sleep(2 * time.Millisecond)
	headers2 := auth.Sign("POST", "/api/v1/order", `{"symbol":"BTCUSDT"}`)
	if headers.AccessTimestamp == headers2.AccessTimestamp {
		t.Skip("clock resolution too coarse to distinguish timestamps in this environment")
	}
	if headers.AccessSign == headers2.AccessSign {
		t.Error("expected signatures to differ when the timestamp differs")
	}
}
