// Package strategy implements the three TradingSignal-producing
// variants, consuming marketdata.ProcessedData, grounded on
// internal/trading/strategies' Strategy interface shape
// (Generate/Analyze/GetConfig/UpdateConfig) generalized from raw
// MarketData to ProcessedData.
package strategy

import (
	"tradercore/internal/marketdata"
	"tradercore/internal/models"
)

// Strategy evaluates ProcessedData and returns a TradingSignal. Every
// implementation must return HOLD on insufficient data or failed
// threshold checks.
type Strategy interface {
	Kind() models.StrategyKind
	RequiredIndicators() marketdata.Requirement
	Generate(data marketdata.ProcessedData) models.TradingSignal
}

// New constructs the Strategy variant named by kind.
func New(kind models.StrategyKind) Strategy {
	switch kind {
	case models.StrategyTrendFollowing:
		return NewTrendFollowing()
	case models.StrategyMeanReversion:
		return NewMeanReversion()
	case models.StrategyBreakout:
		return NewBreakout()
	default:
		return NewTrendFollowing()
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
