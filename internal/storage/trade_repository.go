package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
)

// TradeRepository is the Postgres-backed repository.TradeRepository,
// grounded on the original trade_repository.go's *gorm.DB-wrapping shape
// (one struct field, one constructor, plain CRUD methods), without its
// virtual-balance transaction since balance accounting is out of this
// module's scope.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository constructs a TradeRepository over an already-
// connected, already-migrated db (see Connect).
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

var _ repository.TradeRepository = (*TradeRepository)(nil)

func (r *TradeRepository) Create(ctx context.Context, p repository.TradeParams) (string, error) {
	row := tradeRow{
		TradeID:         uuid.NewString(),
		TraderID:        p.TraderID,
		Exchange:        p.Exchange,
		Symbol:          p.Symbol,
		Side:            string(p.Side),
		Leverage:        decimal.NewFromFloat(p.Leverage),
		EntryPrice:      decimal.NewFromFloat(p.EntryPrice),
		EntryAmount:     decimal.NewFromFloat(p.EntryAmount),
		EntryTimestamp:  p.EntryTimestamp,
		EntryOrderID:    p.EntryOrderID,
		StopLossPrice:   decimal.NewFromFloat(p.StopLossPrice),
		TakeProfitPrice: decimal.NewFromFloat(p.TakeProfitPrice),
		Indicators:      indicatorSnapshotJSON(p.Indicators),
		Status:          string(models.TradeOpen),
		PatternID:       p.PatternID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.TradeID, nil
}

func (r *TradeRepository) Close(ctx context.Context, tradeID string, exitPrice, exitAmount float64, reason models.ExitReason, exitOrderID string, fees float64) (bool, error) {
	var closed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row tradeRow
		err := tx.Where("trade_id = ? AND status = ?", tradeID, string(models.TradeOpen)).
			First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		profitLoss, profitLossPercent := closePnL(row.EntryPrice, row.EntryAmount, row.Leverage, models.Side(row.Side), decimal.NewFromFloat(exitPrice))

		result := tx.Model(&tradeRow{}).
			Where("trade_id = ? AND status = ?", tradeID, string(models.TradeOpen)).
			Updates(map[string]any{
				"exit_price":          exitPrice,
				"exit_amount":         exitAmount,
				"exit_timestamp":      time.Now(),
				"exit_order_id":       exitOrderID,
				"exit_reason":         string(reason),
				"profit_loss":         profitLoss,
				"profit_loss_percent": profitLossPercent,
				"fees":                fees,
				"status":              string(models.TradeClosed),
			})
		if result.Error != nil {
			return result.Error
		}
		closed = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return closed, nil
}

// closePnL derives realized P&L the way Position.PnL computes unrealized
// P&L: (exit-entry) * quantity * leverage, negated for SHORT. entryAmount
// is notional (quantity * entryPrice, see position.Manager.ClosePosition),
// so quantity is recovered by dividing it back out. profitLossPercent is
// the return on the notional entry value, matching how MinReturnPercent
// elsewhere in this system is expressed as a percentage of money at stake
// rather than of margin.
func closePnL(entryPrice, entryAmount, leverage decimal.Decimal, side models.Side, exitPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if entryPrice.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	quantity := entryAmount.Div(entryPrice)
	profitLoss := exitPrice.Sub(entryPrice).Mul(quantity).Mul(leverage)
	if side == models.SideShort {
		profitLoss = profitLoss.Neg()
	}
	var profitLossPercent decimal.Decimal
	if !entryAmount.IsZero() {
		profitLossPercent = profitLoss.Div(entryAmount).Mul(decimal.NewFromInt(100))
	}
	return profitLoss, profitLossPercent
}

func (r *TradeRepository) FindByID(ctx context.Context, tradeID string) (*models.TradeRecord, error) {
	var row tradeRow
	err := r.db.WithContext(ctx).Where("trade_id = ?", tradeID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := row.toDomain()
	return &rec, nil
}

func (r *TradeRepository) FindOpenTrades(ctx context.Context, traderID string) ([]models.TradeRecord, error) {
	var rows []tradeRow
	err := r.db.WithContext(ctx).
		Where("trader_id = ? AND status = ?", traderID, string(models.TradeOpen)).
		Order("entry_timestamp desc").
		Find(&rows).Error
	return toDomainSlice(rows), err
}

func (r *TradeRepository) FindAllOpenTrades(ctx context.Context) ([]models.TradeRecord, error) {
	var rows []tradeRow
	err := r.db.WithContext(ctx).
		Where("status = ?", string(models.TradeOpen)).
		Order("entry_timestamp desc").
		Find(&rows).Error
	return toDomainSlice(rows), err
}

func (r *TradeRepository) FindClosedTrades(ctx context.Context, traderID string, limit int) ([]models.TradeRecord, error) {
	var rows []tradeRow
	err := r.db.WithContext(ctx).
		Where("trader_id = ? AND status = ?", traderID, string(models.TradeClosed)).
		Order("exit_timestamp desc").
		Limit(limit).
		Find(&rows).Error
	return toDomainSlice(rows), err
}

func (r *TradeRepository) FindClosedTradesBySymbol(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	var rows []tradeRow
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND status = ?", symbol, string(models.TradeClosed)).
		Order("exit_timestamp desc").
		Limit(limit).
		Find(&rows).Error
	return toDomainSlice(rows), err
}

func (r *TradeRepository) FindClosedTradesByDateRange(ctx context.Context, from, to time.Time) ([]models.TradeRecord, error) {
	var rows []tradeRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND exit_timestamp BETWEEN ? AND ?", string(models.TradeClosed), from, to).
		Order("exit_timestamp desc").
		Find(&rows).Error
	return toDomainSlice(rows), err
}

func (r *TradeRepository) UpdateStopLoss(ctx context.Context, tradeID string, stopLoss float64) error {
	return r.db.WithContext(ctx).Model(&tradeRow{}).
		Where("trade_id = ?", tradeID).
		Update("stop_loss_price", stopLoss).Error
}

func (r *TradeRepository) UpdateTakeProfit(ctx context.Context, tradeID string, takeProfit float64) error {
	return r.db.WithContext(ctx).Model(&tradeRow{}).
		Where("trade_id = ?", tradeID).
		Update("take_profit_price", takeProfit).Error
}

func toDomainSlice(rows []tradeRow) []models.TradeRecord {
	out := make([]models.TradeRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}
