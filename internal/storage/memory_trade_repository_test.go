package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
)

func TestMemoryTradeRepository_CreateFindClose(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTradeRepository()

	id, err := repo.Create(ctx, repository.TradeParams{
		TraderID:       "trader-1",
		Exchange:       "PAPER",
		Symbol:         "BTCUSDT",
		Side:           models.SideLong,
		Leverage:       1,
		EntryPrice:     50000,
		EntryAmount:    5000, // 0.1 BTC notional at entry
		EntryTimestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	open, err := repo.FindOpenTrades(ctx, "trader-1")
	if err != nil || len(open) != 1 {
		t.Fatalf("FindOpenTrades = %v, %v; want one open trade", open, err)
	}

	closed, err := repo.Close(ctx, id, 51000, 5100, models.ExitReasonSignal, "order-2", 1.5)
	if err != nil || !closed {
		t.Fatalf("Close = %v, %v; want true, nil", closed, err)
	}

	rec, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if rec.Status != models.TradeClosed {
		t.Errorf("Status = %v, want %v", rec.Status, models.TradeClosed)
	}
	wantPnL := decimal.NewFromInt(100) // (51000-50000) * quantity(0.1) * leverage(1)
	if !rec.ProfitLoss.Equal(wantPnL) {
		t.Errorf("ProfitLoss = %s, want %s", rec.ProfitLoss, wantPnL)
	}
	if rec.ProfitLossPercent.IsZero() {
		t.Errorf("ProfitLossPercent = %s, want nonzero", rec.ProfitLossPercent)
	}

	stillOpen, err := repo.FindOpenTrades(ctx, "trader-1")
	if err != nil || len(stillOpen) != 0 {
		t.Fatalf("FindOpenTrades after close = %v, %v; want empty", stillOpen, err)
	}
}

func TestMemoryTradeRepository_CloseUnknownTradeReturnsFalse(t *testing.T) {
	repo := NewMemoryTradeRepository()
	ok, err := repo.Close(context.Background(), "nope", 0, 0, models.ExitReasonManual, "", 0)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ok {
		t.Error("Close on an unknown trade returned true, want false")
	}
}

func TestMemoryTradeRepository_UpdateStopLossUnknownTradeErrors(t *testing.T) {
	repo := NewMemoryTradeRepository()
	if err := repo.UpdateStopLoss(context.Background(), "nope", 100); err == nil {
		t.Fatal("UpdateStopLoss on an unknown trade returned nil error")
	}
}

var _ repository.TradeRepository = (*MemoryTradeRepository)(nil)
