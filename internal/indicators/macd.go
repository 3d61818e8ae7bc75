package indicators

import "tradercore/internal/models"

// MACDResult is the MACD line, signal line, and histogram at one point.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes EMA(fast) - EMA(slow), with the signal line as an EMA(g)
// of the MACD series itself. Requires slow+signal-1 candles. fast must be
// less than slow; this is enforced at call time as an invariant violation
// (panic) — constructor-time misconfiguration is treated as unreachable
// in correctly wired code.
func MACD(candles []models.Candlestick, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		panic("indicators: MACD fast period must be less than slow period")
	}
	if len(candles) < slow+signal-1 {
		return MACDResult{}, ErrInsufficientData
	}
	cs := closes(candles)
	macdSeries := macdLineSeries(cs, fast, slow)
	signalSeries := ema(macdSeries[slow-1:], signal)
	last := len(signalSeries) - 1
	macdVal := macdSeries[len(macdSeries)-1]
	signalVal := signalSeries[last]
	return MACDResult{MACD: macdVal, Signal: signalVal, Histogram: macdVal - signalVal}, nil
}

// MACDAll yields one MACDResult per position (zero value while filling).
func MACDAll(candles []models.Candlestick, fast, slow, signal int) []MACDResult {
	if fast >= slow {
		panic("indicators: MACD fast period must be less than slow period")
	}
	cs := closes(candles)
	out := make([]MACDResult, len(cs))
	if len(cs) < slow+signal-1 {
		return out
	}
	macdSeries := macdLineSeries(cs, fast, slow)
	signalSeries := ema(macdSeries[slow-1:], signal)
	for i := range out {
		if i < slow+signal-2 {
			continue
		}
		macdVal := macdSeries[i]
		signalVal := signalSeries[i-(slow-1)]
		out[i] = MACDResult{MACD: macdVal, Signal: signalVal, Histogram: macdVal - signalVal}
	}
	return out
}

// macdLineSeries returns EMA(fast)-EMA(slow) aligned to the full input
// length (values before slow-1 are not meaningful).
func macdLineSeries(cs []float64, fast, slow int) []float64 {
	fastEMA := ema(cs, fast)
	slowEMA := ema(cs, slow)
	out := make([]float64, len(cs))
	for i := range cs {
		out[i] = fastEMA[i] - slowEMA[i]
	}
	return out
}

// ema computes the exponential moving average series, seeded with the SMA
// of the first period values and held flat (equal to price) before that.
func ema(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) < period {
		copy(out, xs)
		return out
	}
	multiplier := 2.0 / float64(period+1)
	seed := mean(xs[:period])
	for i := 0; i < period-1; i++ {
		out[i] = xs[i]
	}
	out[period-1] = seed
	prev := seed
	for i := period; i < len(xs); i++ {
		prev = (xs[i]-prev)*multiplier + prev
		out[i] = prev
	}
	return out
}
