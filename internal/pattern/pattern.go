// Package pattern extracts reusable trade fingerprints from profitable
// closes and scores how well a stored fingerprint matches live market
// conditions.
package pattern

import "tradercore/internal/models"

// classify assigns a PatternType to the indicator readings captured at
// trade entry. Checked in the order oversold, overbought, trend, momentum;
// anything left unmatched is CUSTOM.
func classify(snap models.IndicatorSnapshot) models.PatternType {
	switch {
	case snap.RSI <= 30:
		return models.PatternOversoldReversal
	case snap.RSI >= 70:
		return models.PatternOverboughtReversal
	case snap.SMAShort > snap.SMALong:
		return models.PatternTrendFollowing
	case snap.MACD > 0:
		return models.PatternMomentumContinuation
	default:
		return models.PatternCustom
	}
}

func actionFromSide(side models.Side) models.SignalAction {
	if side == models.SideShort {
		return models.ActionSell
	}
	return models.ActionBuy
}
