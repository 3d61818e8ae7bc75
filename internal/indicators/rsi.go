package indicators

import (
	"errors"

	"tradercore/internal/models"
)

// RSI computes the Relative Strength Index over period p (default 14).
// The first average gain/loss is a simple mean over the initial p
// differences; subsequent values use Wilder's recurrence
// avg = (avg*(p-1) + x) / p. Requires p+1 candles.
//
// Flat series (avgGain == avgLoss == 0, RS undefined) return 50: neutral,
// since the canonical formula has a 0/0 singularity there and 50 is the
// only one of the three candidate conventions (0, 100, 50) that doesn't
// bias TrendFollowing/MeanReversion threshold checks toward a spurious
// BUY or SELL reading when the market isn't moving at all. See DESIGN.md
// Open Question 1.
func RSI(candles []models.Candlestick, period int) (float64, error) {
	if period <= 0 {
		return 0, errInvalidPeriod("RSI")
	}
	if len(candles) < period+1 {
		return 0, ErrInsufficientData
	}
	cs := closes(candles)
	avgGain, avgLoss := wilderSeed(cs, period)
	for i := period + 1; i < len(cs); i++ {
		gain, loss := delta(cs[i-1], cs[i])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	return rsiFromAverages(avgGain, avgLoss), nil
}

// RSIAll yields one RSI value per position (NaN while the window fills).
func RSIAll(candles []models.Candlestick, period int) []float64 {
	cs := closes(candles)
	out := make([]float64, len(cs))
	if len(cs) < period+1 {
		for i := range out {
			out[i] = nanValue
		}
		return out
	}
	for i := 0; i <= period; i++ {
		out[i] = nanValue
	}
	avgGain, avgLoss := wilderSeed(cs, period)
	out[period] = rsiFromAverages(avgGain, avgLoss)
	for i := period + 1; i < len(cs); i++ {
		gain, loss := delta(cs[i-1], cs[i])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func wilderSeed(cs []float64, period int) (avgGain, avgLoss float64) {
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		gain, loss := delta(cs[i-1], cs[i])
		gainSum += gain
		lossSum += loss
	}
	return gainSum / float64(period), lossSum / float64(period)
}

func delta(prev, cur float64) (gain, loss float64) {
	diff := cur - prev
	if diff > 0 {
		return diff, 0
	}
	return 0, -diff
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func errInvalidPeriod(name string) error {
	return errors.New("indicators: " + name + " period must be positive")
}
