package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// MemoryTradeRepository is an in-process repository.TradeRepository,
// grounded on internal/pattern.MemoryStore's "mutex-guarded map, safe
// standalone fallback" shape generalized from patterns to trades. It
// exists for running the runtime without a configured Postgres DSN —
// traderd falls back to it rather than refusing to start.
type MemoryTradeRepository struct {
	mu     sync.Mutex
	trades map[string]*models.TradeRecord
}

// NewMemoryTradeRepository returns an empty trade store.
func NewMemoryTradeRepository() *MemoryTradeRepository {
	return &MemoryTradeRepository{trades: make(map[string]*models.TradeRecord)}
}

var _ repository.TradeRepository = (*MemoryTradeRepository)(nil)

func (s *MemoryTradeRepository) Create(ctx context.Context, p repository.TradeParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.trades[id] = &models.TradeRecord{
		TradeID:         id,
		TraderID:        p.TraderID,
		Exchange:        p.Exchange,
		Symbol:          p.Symbol,
		Side:            p.Side,
		Leverage:        decimalFromFloat(p.Leverage),
		EntryPrice:      decimalFromFloat(p.EntryPrice),
		EntryAmount:     decimalFromFloat(p.EntryAmount),
		EntryTimestamp:  p.EntryTimestamp,
		EntryOrderID:    p.EntryOrderID,
		StopLossPrice:   decimalFromFloat(p.StopLossPrice),
		TakeProfitPrice: decimalFromFloat(p.TakeProfitPrice),
		Indicators:      p.Indicators,
		Status:          models.TradeOpen,
		PatternID:       p.PatternID,
	}
	return id, nil
}

func (s *MemoryTradeRepository) Close(ctx context.Context, tradeID string, exitPrice, exitAmount float64, reason models.ExitReason, exitOrderID string, fees float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[tradeID]
	if !ok || t.Status != models.TradeOpen {
		return false, nil
	}
	profitLoss, profitLossPercent := closePnL(t.EntryPrice, t.EntryAmount, t.Leverage, t.Side, decimalFromFloat(exitPrice))

	t.ExitPrice = decimalFromFloat(exitPrice)
	t.ExitAmount = decimalFromFloat(exitAmount)
	t.ExitTimestamp = time.Now()
	t.ExitOrderID = exitOrderID
	t.ExitReason = reason
	t.ProfitLoss = profitLoss
	t.ProfitLossPercent = profitLossPercent
	t.Fees = decimalFromFloat(fees)
	t.Status = models.TradeClosed
	return true, nil
}

func (s *MemoryTradeRepository) FindByID(ctx context.Context, tradeID string) (*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[tradeID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *MemoryTradeRepository) FindOpenTrades(ctx context.Context, traderID string) ([]models.TradeRecord, error) {
	return s.filter(func(t *models.TradeRecord) bool {
		return t.TraderID == traderID && t.Status == models.TradeOpen
	}, 0), nil
}

func (s *MemoryTradeRepository) FindAllOpenTrades(ctx context.Context) ([]models.TradeRecord, error) {
	return s.filter(func(t *models.TradeRecord) bool {
		return t.Status == models.TradeOpen
	}, 0), nil
}

func (s *MemoryTradeRepository) FindClosedTrades(ctx context.Context, traderID string, limit int) ([]models.TradeRecord, error) {
	return s.filter(func(t *models.TradeRecord) bool {
		return t.TraderID == traderID && t.Status == models.TradeClosed
	}, limit), nil
}

func (s *MemoryTradeRepository) FindClosedTradesBySymbol(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	return s.filter(func(t *models.TradeRecord) bool {
		return t.Symbol == symbol && t.Status == models.TradeClosed
	}, limit), nil
}

func (s *MemoryTradeRepository) FindClosedTradesByDateRange(ctx context.Context, from, to time.Time) ([]models.TradeRecord, error) {
	return s.filter(func(t *models.TradeRecord) bool {
		return t.Status == models.TradeClosed && !t.ExitTimestamp.Before(from) && !t.ExitTimestamp.After(to)
	}, 0), nil
}

func (s *MemoryTradeRepository) UpdateStopLoss(ctx context.Context, tradeID string, stopLoss float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[tradeID]
	if !ok {
		return fmt.Errorf("storage: trade %s not found", tradeID)
	}
	t.StopLossPrice = decimalFromFloat(stopLoss)
	return nil
}

func (s *MemoryTradeRepository) UpdateTakeProfit(ctx context.Context, tradeID string, takeProfit float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[tradeID]
	if !ok {
		return fmt.Errorf("storage: trade %s not found", tradeID)
	}
	t.TakeProfitPrice = decimalFromFloat(takeProfit)
	return nil
}

func (s *MemoryTradeRepository) filter(pred func(*models.TradeRecord) bool, limit int) []models.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.TradeRecord, 0)
	for _, t := range s.trades {
		if pred(t) {
			out = append(out, *t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
