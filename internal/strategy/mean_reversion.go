package strategy

import (
	"fmt"
	"time"

	"tradercore/internal/marketdata"
	"tradercore/internal/models"
)

// MeanReversion requires {BollingerBands, RSI}. BUY when price touches the
// lower band AND RSI < 30; SELL mirrors it. HOLD when price is within the
// bands or the bandwidth is below the squeeze threshold.
type MeanReversion struct {
	RSIPeriod        int
	BollingerPeriod  int
	BollingerK       float64
	SqueezeThreshold float64 // bandwidth below this disables signals
}

// NewMeanReversion constructs a MeanReversion strategy with spec defaults
// (Bollinger 20/2, RSI 14).
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		RSIPeriod:        14,
		BollingerPeriod:  20,
		BollingerK:       2,
		SqueezeThreshold: 0.01,
	}
}

func (s *MeanReversion) Kind() models.StrategyKind { return models.StrategyMeanReversion }

func (s *MeanReversion) RequiredIndicators() marketdata.Requirement {
	return marketdata.Requirement{
		RSIPeriod:       s.RSIPeriod,
		BollingerPeriod: s.BollingerPeriod,
		BollingerK:      s.BollingerK,
	}
}

func (s *MeanReversion) Generate(data marketdata.ProcessedData) models.TradingSignal {
	rsi, okRSI := data.Indicators[marketdata.IndicatorRSI]
	band := data.Bollinger
	if !okRSI || band.Upper == 0 && band.Lower == 0 && band.Middle == 0 {
		return models.Hold("insufficient data for mean-reversion indicators", nil)
	}

	price := data.LatestPrice
	snapshot := map[string]float64{
		"rsi":             rsi,
		"bollinger_upper": band.Upper,
		"bollinger_mid":   band.Middle,
		"bollinger_lower": band.Lower,
		"bandwidth":       band.Bandwidth,
	}

	if band.Bandwidth < s.SqueezeThreshold {
		return models.Hold("mean-reversion squeeze: bandwidth below threshold", snapshot)
	}

	distanceFromCentre := func() float64 {
		width := band.Upper - band.Lower
		if width == 0 {
			return 0
		}
		return 1 - band.PercentB(price) // distance from centre, lower band side
	}

	if price <= band.Lower && rsi < 30 {
		confidence := clampConfidence(distanceFromCentre())
		return models.TradingSignal{
			Action:          models.ActionBuy,
			Confidence:      confidence,
			Reason:          fmt.Sprintf("mean-reversion BUY: price %.4f at/below lower band %.4f, RSI %.1f < 30", price, band.Lower, rsi),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	if price >= band.Upper && rsi > 70 {
		confidence := clampConfidence(band.PercentB(price))
		return models.TradingSignal{
			Action:          models.ActionSell,
			Confidence:      confidence,
			Reason:          fmt.Sprintf("mean-reversion SELL: price %.4f at/above upper band %.4f, RSI %.1f > 70", price, band.Upper, rsi),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	return models.Hold("mean-reversion thresholds not met", snapshot)
}
