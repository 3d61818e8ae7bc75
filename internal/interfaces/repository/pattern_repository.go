package repository

import (
	"context"

	"tradercore/internal/models"
)

// PatternRepository is the external pattern-persistence contract.
type PatternRepository interface {
	Create(ctx context.Context, p models.Pattern) (string, error)
	UpdateStatistics(ctx context.Context, patternID string, pnl float64, successful bool) error
	FindByID(ctx context.Context, patternID string) (*models.Pattern, error)
	FindActive(ctx context.Context) ([]models.Pattern, error)
	FindBySymbol(ctx context.Context, symbol string) ([]models.Pattern, error)
	FindMatching(ctx context.Context, symbol string, timeframe models.Interval, action models.SignalAction, rsi, macd *float64, minConfidence float64) ([]models.Pattern, error)
	GetTop(ctx context.Context, limit, minOccurrences int) ([]models.Pattern, error)
	Deactivate(ctx context.Context, patternID string) error
	Activate(ctx context.Context, patternID string) error
}
