package pattern

import (
	"time"

	"tradercore/internal/models"
)

// rsiRangeSpread is the half-width of the RSI band recorded around a
// trade's entry RSI reading.
const rsiRangeSpread = 2.0

// minConfidenceSeed is the starting confidence assigned to a freshly
// extracted pattern, before any outcomes have been recorded against it.
const minConfidenceSeed = 0.5

// Extract builds a Pattern fingerprint from a closed, profitable trade.
// Returns false if the trade's realized P&L does not clear threshold, in
// which case no pattern should be stored.
func Extract(trade models.TradeRecord, timeframe models.Interval, threshold float64) (models.Pattern, bool) {
	pnl, _ := trade.ProfitLoss.Float64()
	if pnl <= threshold {
		return models.Pattern{}, false
	}

	snap := trade.Indicators
	entryPrice, _ := trade.EntryPrice.Float64()
	patternType := classify(snap)

	conditions := map[models.PredicateKey]models.ConditionValue{
		models.PredicateRSIRange: {
			Kind:    models.ConditionRSIRange,
			RSILow:  snap.RSI - rsiRangeSpread,
			RSIHigh: snap.RSI + rsiRangeSpread,
		},
		models.PredicateMACD: {
			Kind: models.ConditionMACD,
			MACD: snap.MACD,
		},
		models.PredicateEntryPrice: {
			Kind:       models.ConditionEntryPrice,
			EntryPrice: entryPrice,
		},
		models.PredicatePatternType: {
			Kind:        models.ConditionPatternType,
			PatternType: patternType,
		},
	}

	return models.Pattern{
		Exchange:      trade.Exchange,
		Symbol:        trade.Symbol,
		Timeframe:     timeframe,
		Action:        actionFromSide(trade.Side),
		Conditions:    conditions,
		Confidence:    minConfidenceSeed,
		Active:        true,
		CreatedAt:     time.Now(),
		UsageCount:    0,
		SuccessCount:  0,
		SuccessRate:   0,
		AverageReturn: pnl,
	}, true
}
