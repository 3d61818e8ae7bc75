package strategy

import (
	"fmt"
	"time"

	"tradercore/internal/indicators"
	"tradercore/internal/marketdata"
	"tradercore/internal/models"
)

// Breakout requires {BollingerBands, MACD}. BUY when close exceeds the
// upper band by >=5 permille AND MACD histogram is positive AND there's
// no recent retracement through the middle band; SELL mirrors it. A
// "false breakout" — a close at or through the middle band among the
// RetracementWindow candles before the current one — forces HOLD.
type Breakout struct {
	BollingerPeriod   int
	BollingerK        float64
	MACDFast          int
	MACDSlow          int
	MACDSignal        int
	BreakoutThreshold float64 // e.g. 0.005 = 5 permille
	RetracementWindow int
}

// NewBreakout constructs a Breakout strategy with spec defaults.
func NewBreakout() *Breakout {
	return &Breakout{
		BollingerPeriod:   20,
		BollingerK:        2,
		MACDFast:          12,
		MACDSlow:          26,
		MACDSignal:        9,
		BreakoutThreshold: 0.005,
		RetracementWindow: 3,
	}
}

func (s *Breakout) Kind() models.StrategyKind { return models.StrategyBreakout }

func (s *Breakout) RequiredIndicators() marketdata.Requirement {
	return marketdata.Requirement{
		BollingerPeriod: s.BollingerPeriod,
		BollingerK:      s.BollingerK,
		MACDFast:        s.MACDFast,
		MACDSlow:        s.MACDSlow,
		MACDSignal:      s.MACDSignal,
	}
}

func (s *Breakout) Generate(data marketdata.ProcessedData) models.TradingSignal {
	band := data.Bollinger
	if band.Upper == 0 && band.Middle == 0 && band.Lower == 0 {
		return models.Hold("insufficient data for breakout indicators", nil)
	}
	price := data.LatestPrice
	snapshot := map[string]float64{
		"bollinger_upper": band.Upper,
		"bollinger_mid":   band.Middle,
		"bollinger_lower": band.Lower,
		"macd_histogram":  data.MACDValue.Histogram,
	}

	upperBreak := (price - band.Upper) / band.Upper
	lowerBreak := (band.Lower - price) / band.Lower

	if upperBreak >= s.BreakoutThreshold && data.MACDValue.Histogram > 0 {
		if s.falseBreakout(data.Candles, band, true) {
			return models.Hold("false breakout: price reverted through middle band", snapshot)
		}
		return models.TradingSignal{
			Action:          models.ActionBuy,
			Confidence:      clampConfidence(upperBreak * 20),
			Reason:          fmt.Sprintf("breakout BUY: close %.4f exceeds upper band %.4f by %.2f%%, MACD histogram positive", price, band.Upper, upperBreak*100),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	if lowerBreak >= s.BreakoutThreshold && data.MACDValue.Histogram < 0 {
		if s.falseBreakout(data.Candles, band, false) {
			return models.Hold("false breakout: price reverted through middle band", snapshot)
		}
		return models.TradingSignal{
			Action:          models.ActionSell,
			Confidence:      clampConfidence(lowerBreak * 20),
			Reason:          fmt.Sprintf("breakout SELL: close %.4f exceeds lower band %.4f by %.2f%%, MACD histogram negative", price, band.Lower, lowerBreak*100),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	return models.Hold("breakout thresholds not met", snapshot)
}

// falseBreakout reports whether any of the last RetracementWindow candles
// (excluding the current one) closed at or through the middle band on
// the side opposite the breakout, which would mark the current breakout as a
// retracement rather than a sustained move.
func (s *Breakout) falseBreakout(candles []models.Candlestick, band indicators.BollingerResult, upward bool) bool {
	n := len(candles)
	if n < s.RetracementWindow+1 {
		return false
	}
	for i := n - 1 - s.RetracementWindow; i < n-1; i++ {
		if i < 0 {
			continue
		}
		close := candles[i].CloseFloat()
		if upward && close <= band.Middle {
			return true
		}
		if !upward && close >= band.Middle {
			return true
		}
	}
	return false
}
