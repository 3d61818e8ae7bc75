package pattern

import (
	"math"
	"time"

	"tradercore/internal/models"
)

// Relative weights of each relevance component. Sum to 1.0.
const (
	weightIndicators  = 0.4
	weightPerformance = 0.3
	weightRecency     = 0.2
	weightPrice       = 0.1
)

// rsiDecayWidth is the RSI-point distance over which similarity decays
// from 1.0 (inside the stored band) to 0 (outside it).
const rsiDecayWidth = 20.0

// macdTolerance and bollingerTolerance bound the absolute difference
// within which a MACD or %B reading is still considered similar to the
// value stored on the pattern. Chosen as reasonable bands for the two
// indicators' native scales and recorded as a judgment call in DESIGN.md.
const (
	macdTolerance      = 1.0
	bollingerTolerance = 0.3
	priceTolerancePct  = 0.05
)

// Relevance scores how well a stored Pattern fits the given live
// MarketConditions, in [0,1]. An exchange or symbol mismatch is an
// immediate 0 regardless of every other component.
func Relevance(p models.Pattern, cond models.MarketConditions, now time.Time) float64 {
	if p.Exchange != "" && cond.Exchange != "" && p.Exchange != cond.Exchange {
		return 0
	}
	if p.Symbol != cond.Symbol {
		return 0
	}

	indicatorScore, priceScore, havePrice := scoreConditions(p, cond)
	if !havePrice {
		priceScore = 1.0
	}
	performanceScore := scorePerformance(p)
	recencyScore := scoreRecency(p, now)

	return weightIndicators*indicatorScore +
		weightPerformance*performanceScore +
		weightRecency*recencyScore +
		weightPrice*priceScore
}

// scoreConditions averages similarity over every indicator predicate the
// pattern stores, and separately derives a price similarity if the
// pattern records an entry price or price range. A predicate whose
// indicator is absent from cond is skipped rather than penalized.
func scoreConditions(p models.Pattern, cond models.MarketConditions) (indicatorScore, priceScore float64, havePrice bool) {
	var sum float64
	var count int

	for _, cv := range p.Conditions {
		switch cv.Kind {
		case models.ConditionRSIRange:
			rsi, ok := cond.Indicators["RSI"]
			if !ok {
				continue
			}
			sum += rsiRangeSimilarity(cv.RSILow, cv.RSIHigh, rsi)
			count++
		case models.ConditionMACD:
			macd, ok := cond.Indicators["MACD"]
			if !ok {
				continue
			}
			sum += scaledSimilarity(cv.MACD, macd, macdTolerance)
			count++
		case models.ConditionBollinger:
			percentB, ok := cond.Indicators["BollingerPercentB"]
			if !ok || cv.PercentB == nil {
				continue
			}
			sum += scaledSimilarity(*cv.PercentB, percentB, bollingerTolerance)
			count++
		case models.ConditionEntryPrice:
			havePrice = true
			priceScore = relativeSimilarity(cv.EntryPrice, cond.CurrentPrice, priceTolerancePct)
		case models.ConditionPriceRange:
			havePrice = true
			priceScore = priceRangeSimilarity(cv.PriceLow, cv.PriceHigh, cond.CurrentPrice)
		}
	}

	if count == 0 {
		indicatorScore = 1.0
	} else {
		indicatorScore = sum / float64(count)
	}
	return indicatorScore, priceScore, havePrice
}

// rsiRangeSimilarity is 1.0 inside [low, high], decaying linearly to 0
// over rsiDecayWidth points beyond the nearer edge.
func rsiRangeSimilarity(low, high, rsi float64) float64 {
	if rsi >= low && rsi <= high {
		return 1.0
	}
	var distance float64
	if rsi < low {
		distance = low - rsi
	} else {
		distance = rsi - high
	}
	sim := 1 - distance/rsiDecayWidth
	if sim < 0 {
		return 0
	}
	return sim
}

// scaledSimilarity is 1.0 at zero difference, decaying linearly to 0 at
// tolerance away.
func scaledSimilarity(stored, current, tolerance float64) float64 {
	if tolerance <= 0 {
		if stored == current {
			return 1
		}
		return 0
	}
	sim := 1 - math.Abs(stored-current)/tolerance
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// relativeSimilarity compares two prices as a fraction of the stored
// price, decaying to 0 at tolerancePct relative difference.
func relativeSimilarity(stored, current, tolerancePct float64) float64 {
	if stored == 0 {
		return 0
	}
	diff := math.Abs(current-stored) / math.Abs(stored)
	sim := 1 - diff/tolerancePct
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func priceRangeSimilarity(low, high, price float64) float64 {
	if price >= low && price <= high {
		return 1.0
	}
	width := high - low
	if width <= 0 {
		width = (high + low) / 2 * priceTolerancePct
	}
	var distance float64
	if price < low {
		distance = low - price
	} else {
		distance = price - high
	}
	sim := 1 - distance/width
	if sim < 0 {
		return 0
	}
	return sim
}

// scorePerformance blends a pattern's historical success rate with how
// much evidence backs it: successRate weighted 0.7, usage-count
// confidence (capped at 10 occurrences) weighted 0.3.
func scorePerformance(p models.Pattern) float64 {
	usageScore := float64(p.UsageCount) / 10
	if usageScore > 1 {
		usageScore = 1
	}
	return 0.7*p.SuccessRate + 0.3*usageScore
}

// scoreRecency decays a pattern's weight the longer it has gone unused:
// full weight within a day, tapering to a 0.1 floor after 90 days.
func scoreRecency(p models.Pattern, now time.Time) float64 {
	if p.LastUsedAt == nil {
		return 0.1
	}
	days := now.Sub(*p.LastUsedAt).Hours() / 24

	switch {
	case days <= 1:
		return 1.0
	case days <= 7:
		return lerp(days, 1, 7, 1.0, 0.7)
	case days <= 30:
		return lerp(days, 7, 30, 0.7, 0.3)
	case days <= 90:
		return lerp(days, 30, 90, 0.3, 0.1)
	default:
		return 0.1
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
