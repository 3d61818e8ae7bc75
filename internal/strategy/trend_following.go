package strategy

import (
	"fmt"
	"math"
	"time"

	"tradercore/internal/marketdata"
	"tradercore/internal/models"
)

// TrendFollowing requires {SMA_short, SMA_long, RSI, MACD}. BUY when
// SMA_short > SMA_long AND MACD bullish crossover AND RSI in (40,70);
// SELL mirrors it. Confidence scales with the SMA gap.
type TrendFollowing struct {
	SMAShortPeriod int
	SMALongPeriod  int
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
}

// NewTrendFollowing constructs a TrendFollowing strategy with the
// standard defaults: SMA 10/30, RSI 14, MACD 12/26/9.
func NewTrendFollowing() *TrendFollowing {
	return &TrendFollowing{
		SMAShortPeriod: 10,
		SMALongPeriod:  30,
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
	}
}

func (s *TrendFollowing) Kind() models.StrategyKind { return models.StrategyTrendFollowing }

func (s *TrendFollowing) RequiredIndicators() marketdata.Requirement {
	return marketdata.Requirement{
		SMAShortPeriod: s.SMAShortPeriod,
		SMALongPeriod:  s.SMALongPeriod,
		RSIPeriod:      s.RSIPeriod,
		MACDFast:       s.MACDFast,
		MACDSlow:       s.MACDSlow,
		MACDSignal:     s.MACDSignal,
	}
}

func (s *TrendFollowing) Generate(data marketdata.ProcessedData) models.TradingSignal {
	smaShort, okShort := data.Indicators[marketdata.IndicatorSMAShort]
	smaLong, okLong := data.Indicators[marketdata.IndicatorSMALong]
	rsi, okRSI := data.Indicators[marketdata.IndicatorRSI]
	if !okShort || !okLong || !okRSI {
		return models.Hold("insufficient data for trend-following indicators", nil)
	}
	snapshot := map[string]float64{
		"sma_short": smaShort,
		"sma_long":  smaLong,
		"rsi":       rsi,
		"macd":      data.MACDValue.MACD,
		"signal":    data.MACDValue.Signal,
		"histogram": data.MACDValue.Histogram,
	}

	gap := math.Abs(smaShort-smaLong) / smaLong
	confidence := clampConfidence(gap * 10) // empirically scaled: a 10% gap saturates confidence

	bullishCross := data.MACDValue.MACD > data.MACDValue.Signal && data.MACDValue.Histogram > 0
	bearishCross := data.MACDValue.MACD < data.MACDValue.Signal && data.MACDValue.Histogram < 0

	if smaShort > smaLong && bullishCross && rsi > 40 && rsi < 70 {
		return models.TradingSignal{
			Action:          models.ActionBuy,
			Confidence:      confidence,
			Reason:          fmt.Sprintf("trend-following BUY: SMA(%d)>SMA(%d), MACD bullish crossover, RSI %.1f in (40,70)", s.SMAShortPeriod, s.SMALongPeriod, rsi),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	if smaShort < smaLong && bearishCross && rsi > 40 && rsi < 70 {
		return models.TradingSignal{
			Action:          models.ActionSell,
			Confidence:      confidence,
			Reason:          fmt.Sprintf("trend-following SELL: SMA(%d)<SMA(%d), MACD bearish crossover, RSI %.1f in (40,70)", s.SMAShortPeriod, s.SMALongPeriod, rsi),
			Timestamp:       time.Now(),
			IndicatorValues: snapshot,
		}
	}
	return models.Hold("trend-following thresholds not met", snapshot)
}
