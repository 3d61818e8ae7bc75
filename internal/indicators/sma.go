package indicators

import (
	"errors"

	"tradercore/internal/models"
)

// SMA returns the arithmetic mean of the last p closes. Requires at least
// p candles.
func SMA(candles []models.Candlestick, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("indicators: SMA period must be positive")
	}
	if len(candles) < period {
		return 0, ErrInsufficientData
	}
	window := closes(candles)[len(candles)-period:]
	return mean(window), nil
}

// SMAAll yields one SMA value per position, padded at the head with
// ErrInsufficientData results represented as math.NaN for positions that
// don't yet have a full window.
func SMAAll(candles []models.Candlestick, period int) []float64 {
	cs := closes(candles)
	out := make([]float64, len(cs))
	for i := range cs {
		if i+1 < period {
			out[i] = nanValue
			continue
		}
		out[i] = mean(cs[i+1-period : i+1])
	}
	return out
}
