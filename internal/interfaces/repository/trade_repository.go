// Package repository declares the persistence contracts the trader
// runtime consumes. Concrete implementations (internal/storage) are
// external collaborators: the core depends only on these interfaces.
package repository

import (
	"context"
	"time"

	"tradercore/internal/models"
)

// TradeParams is the data needed to open a new persisted trade row.
type TradeParams struct {
	TraderID        string
	Exchange        string
	Symbol          string
	Side            models.Side
	Leverage        float64
	EntryPrice      float64
	EntryAmount     float64
	EntryTimestamp  time.Time
	EntryOrderID    string
	StopLossPrice   float64
	TakeProfitPrice float64
	Indicators      models.IndicatorSnapshot
	PatternID       string
}

// TradeRepository is the external trade-persistence contract.
// A failed Close is propagated upward; the in-memory position is not
// removed until it succeeds.
type TradeRepository interface {
	Create(ctx context.Context, params TradeParams) (tradeID string, err error)
	Close(ctx context.Context, tradeID string, exitPrice, exitAmount float64, reason models.ExitReason, exitOrderID string, fees float64) (bool, error)
	FindByID(ctx context.Context, tradeID string) (*models.TradeRecord, error)
	FindOpenTrades(ctx context.Context, traderID string) ([]models.TradeRecord, error)
	FindAllOpenTrades(ctx context.Context) ([]models.TradeRecord, error)
	FindClosedTrades(ctx context.Context, traderID string, limit int) ([]models.TradeRecord, error)
	FindClosedTradesBySymbol(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error)
	FindClosedTradesByDateRange(ctx context.Context, from, to time.Time) ([]models.TradeRecord, error)
	UpdateStopLoss(ctx context.Context, tradeID string, stopLoss float64) error
	UpdateTakeProfit(ctx context.Context, tradeID string, takeProfit float64) error
}
