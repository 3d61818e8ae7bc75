package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/models"
)

func TestTradeRow_ToDomain(t *testing.T) {
	now := time.Now()
	row := tradeRow{
		TradeID:        "trade-1",
		TraderID:       "trader-1",
		Exchange:       "BINANCE",
		Symbol:         "BTCUSDT",
		Side:           string(models.SideLong),
		Leverage:       decimal.NewFromInt(3),
		EntryPrice:     decimal.NewFromFloat(50000),
		EntryAmount:    decimal.NewFromFloat(0.1),
		EntryTimestamp: now,
		EntryOrderID:   "order-1",
		ExitReason:     string(models.ExitReasonSignal),
		Indicators:     indicatorSnapshotJSON{RSI: 55},
		Status:         string(models.TradeOpen),
		PatternID:      "pattern-7",
	}

	domain := row.toDomain()

	if domain.TradeID != row.TradeID || domain.TraderID != row.TraderID {
		t.Fatalf("identifiers not preserved: %+v", domain)
	}
	if domain.Side != models.SideLong {
		t.Errorf("Side = %v, want %v", domain.Side, models.SideLong)
	}
	if !domain.EntryPrice.Equal(row.EntryPrice) {
		t.Errorf("EntryPrice = %v, want %v", domain.EntryPrice, row.EntryPrice)
	}
	if domain.Status != models.TradeOpen {
		t.Errorf("Status = %v, want %v", domain.Status, models.TradeOpen)
	}
	if domain.Indicators.RSI != 55 {
		t.Errorf("Indicators.RSI = %v, want 55", domain.Indicators.RSI)
	}
	if (tradeRow{}).TableName() != "trades" {
		t.Errorf("TableName() = %q, want \"trades\"", (tradeRow{}).TableName())
	}
}
