// Package indicators computes pure, stateless technical indicators over
// ordered candlestick series: SMA, RSI, MACD, and Bollinger Bands.
package indicators

import (
	"errors"
	"math"

	"tradercore/internal/models"
)

// ErrInsufficientData is returned when a series is too short for the
// requested indicator window.
var ErrInsufficientData = errors.New("indicators: insufficient data")

// nanValue marks a position in an SMAAll or RSIAll series that doesn't yet
// have a full window; callers of those two functions must check math.IsNaN.
var nanValue = math.NaN()

func closes(candles []models.Candlestick) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.CloseFloat()
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
