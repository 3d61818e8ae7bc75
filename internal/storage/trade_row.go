package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/models"
)

// tradeRow is the persisted row backing models.TradeRecord, grounded on
// the original trade_repository.go's models.Trade row shape, replaced
// field-for-field with the TradeRecord this module defines instead of a
// buy/sell-user-balance schema.
type tradeRow struct {
	TradeID           string `gorm:"primaryKey;column:trade_id"`
	TraderID          string `gorm:"index;column:trader_id"`
	Exchange          string
	Symbol            string `gorm:"index"`
	Side              string
	Leverage          decimal.Decimal `gorm:"type:numeric"`
	EntryPrice        decimal.Decimal `gorm:"type:numeric"`
	EntryAmount       decimal.Decimal `gorm:"type:numeric"`
	EntryTimestamp    time.Time
	EntryOrderID      string
	ExitPrice         decimal.Decimal `gorm:"type:numeric"`
	ExitAmount        decimal.Decimal `gorm:"type:numeric"`
	ExitTimestamp     time.Time
	ExitOrderID       string
	ExitReason        string
	ProfitLoss        decimal.Decimal `gorm:"type:numeric"`
	ProfitLossPercent decimal.Decimal `gorm:"type:numeric"`
	Fees              decimal.Decimal `gorm:"type:numeric"`
	StopLossPrice     decimal.Decimal `gorm:"type:numeric"`
	TakeProfitPrice   decimal.Decimal `gorm:"type:numeric"`
	TrailingActivated bool
	Indicators        indicatorSnapshotJSON `gorm:"type:jsonb"`
	Status            string                `gorm:"index"`
	PatternID         string
}

func (tradeRow) TableName() string { return "trades" }

func (r tradeRow) toDomain() models.TradeRecord {
	return models.TradeRecord{
		TradeID:           r.TradeID,
		TraderID:          r.TraderID,
		Exchange:          r.Exchange,
		Symbol:            r.Symbol,
		Side:              models.Side(r.Side),
		Leverage:          r.Leverage,
		EntryPrice:        r.EntryPrice,
		EntryAmount:       r.EntryAmount,
		EntryTimestamp:    r.EntryTimestamp,
		EntryOrderID:      r.EntryOrderID,
		ExitPrice:         r.ExitPrice,
		ExitAmount:        r.ExitAmount,
		ExitTimestamp:     r.ExitTimestamp,
		ExitOrderID:       r.ExitOrderID,
		ExitReason:        models.ExitReason(r.ExitReason),
		ProfitLoss:        r.ProfitLoss,
		ProfitLossPercent: r.ProfitLossPercent,
		Fees:              r.Fees,
		StopLossPrice:     r.StopLossPrice,
		TakeProfitPrice:   r.TakeProfitPrice,
		TrailingActivated: r.TrailingActivated,
		Indicators:        models.IndicatorSnapshot(r.Indicators),
		Status:            models.TradeStatus(r.Status),
		PatternID:         r.PatternID,
	}
}
