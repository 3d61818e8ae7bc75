// Package marketdata validates candle windows, computes the indicators a
// strategy requires, and caches the result.
package marketdata

import (
	"time"

	"tradercore/internal/indicators"
	"tradercore/internal/models"
)

// IndicatorKey names a value a strategy can require in ProcessedData.
type IndicatorKey string

const (
	IndicatorSMAShort  IndicatorKey = "SMA_short"
	IndicatorSMALong   IndicatorKey = "SMA_long"
	IndicatorRSI       IndicatorKey = "RSI"
	IndicatorMACD      IndicatorKey = "MACD"
	IndicatorBollinger IndicatorKey = "BollingerBands"
)

// Requirement names an indicator and the period(s) it needs.
type Requirement struct {
	Key             IndicatorKey
	SMAShortPeriod  int
	SMALongPeriod   int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerK      float64
}

// RequiredCandles reports the minimum window Process needs to satisfy
// every indicator this Requirement names, mirroring each indicator
// function's own minimum (SMA: period, RSI: period+1, MACD: slow+signal-1,
// Bollinger: period). AITrader's tick loop fetches this many candles
// before calling Process.
func (r Requirement) RequiredCandles() int {
	min := 2
	if r.SMAShortPeriod > min {
		min = r.SMAShortPeriod
	}
	if r.SMALongPeriod > min {
		min = r.SMALongPeriod
	}
	if r.RSIPeriod > 0 && r.RSIPeriod+1 > min {
		min = r.RSIPeriod + 1
	}
	if r.MACDSlow > 0 {
		if need := r.MACDSlow + r.MACDSignal - 1; need > min {
			min = need
		}
	}
	if r.BollingerPeriod > min {
		min = r.BollingerPeriod
	}
	return min
}

// ProcessedData is the validated candle window plus the indicator values a
// strategy asked for.
type ProcessedData struct {
	Candles     []models.Candlestick
	LatestPrice float64
	Indicators  map[IndicatorKey]float64
	MACDValue   indicators.MACDResult
	Bollinger   indicators.BollingerResult
	Timestamp   time.Time
}
