package marketdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tradercore/internal/indicators"
	"tradercore/internal/models"
	"tradercore/internal/observability"
)

// ErrInsufficientData mirrors indicators.ErrInsufficientData at the
// processor boundary: any required indicator lacking data fails the
// whole window.
var ErrInsufficientData = errors.New("marketdata: insufficient data for required indicators")

// ErrNonMonotonic is returned when candle openTimes aren't strictly
// increasing within the declared interval.
var ErrNonMonotonic = errors.New("marketdata: candle openTimes are not strictly increasing")

// Cache is the interface both the in-memory and Redis-backed tiers
// satisfy, grounded on internal/cache/price_cache.go's Get/Set/Stats
// shape generalized from a single DTO to ProcessedData.
type Cache interface {
	Get(ctx context.Context, key string) (ProcessedData, bool)
	Set(ctx context.Context, key string, data ProcessedData)
	Clear(ctx context.Context)
}

// Processor validates candle windows and computes required indicators,
// caching the result by a hash of the tail window.
type Processor struct {
	log   *observability.Logger
	cache Cache
}

// NewProcessor constructs a Processor. A nil cache disables caching.
func NewProcessor(cache Cache) *Processor {
	return &Processor{log: observability.New("marketdata"), cache: cache}
}

// Process validates candles, drops duplicates, and computes the
// indicators req names. Returns ErrNonMonotonic if openTimes regress
// after dedup, or ErrInsufficientData if any required indicator lacks
// enough candles.
func (p *Processor) Process(ctx context.Context, candles []models.Candlestick, req Requirement) (ProcessedData, error) {
	cleaned, err := dedupAndValidate(candles)
	if err != nil {
		return ProcessedData{}, err
	}

	key := windowKey(cleaned)
	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	result := ProcessedData{
		Candles:    cleaned,
		Indicators: make(map[IndicatorKey]float64),
		Timestamp:  time.Now(),
	}
	if len(cleaned) > 0 {
		result.LatestPrice = cleaned[len(cleaned)-1].CloseFloat()
	}

	if req.SMAShortPeriod > 0 {
		v, err := indicators.SMA(cleaned, req.SMAShortPeriod)
		if err != nil {
			return ProcessedData{}, ErrInsufficientData
		}
		result.Indicators[IndicatorSMAShort] = v
	}
	if req.SMALongPeriod > 0 {
		v, err := indicators.SMA(cleaned, req.SMALongPeriod)
		if err != nil {
			return ProcessedData{}, ErrInsufficientData
		}
		result.Indicators[IndicatorSMALong] = v
	}
	if req.RSIPeriod > 0 {
		v, err := indicators.RSI(cleaned, req.RSIPeriod)
		if err != nil {
			return ProcessedData{}, ErrInsufficientData
		}
		result.Indicators[IndicatorRSI] = v
	}
	if req.MACDSlow > 0 {
		v, err := indicators.MACD(cleaned, req.MACDFast, req.MACDSlow, req.MACDSignal)
		if err != nil {
			return ProcessedData{}, ErrInsufficientData
		}
		result.MACDValue = v
		result.Indicators[IndicatorMACD] = v.Histogram
	}
	if req.BollingerPeriod > 0 {
		v, err := indicators.Bollinger(cleaned, req.BollingerPeriod, req.BollingerK)
		if err != nil {
			return ProcessedData{}, ErrInsufficientData
		}
		result.Bollinger = v
	}

	if p.cache != nil {
		p.cache.Set(ctx, key, result)
	}
	return result, nil
}

// ClearCache invalidates every cached window.
func (p *Processor) ClearCache(ctx context.Context) {
	if p.cache != nil {
		p.cache.Clear(ctx)
	}
}

func dedupAndValidate(candles []models.Candlestick) ([]models.Candlestick, error) {
	if len(candles) == 0 {
		return candles, nil
	}
	out := make([]models.Candlestick, 0, len(candles))
	out = append(out, candles[0])
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime.Equal(candles[i-1].OpenTime) {
			continue // duplicate frame, drop
		}
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			return nil, ErrNonMonotonic
		}
		out = append(out, candles[i])
	}
	return out, nil
}

// windowKey hashes the tail of the window (symbol, interval, last 8
// closes and their openTimes) so identical windows hit the cache without
// rehashing the whole series.
func windowKey(candles []models.Candlestick) string {
	if len(candles) == 0 {
		return "empty"
	}
	tailLen := 8
	if len(candles) < tailLen {
		tailLen = len(candles)
	}
	tail := candles[len(candles)-tailLen:]

	h := sha256.New()
	h.Write([]byte(fmt.Sprintf("%s|%s|%d", tail[0].Symbol, tail[0].Interval, len(candles))))
	for _, c := range tail {
		h.Write([]byte(fmt.Sprintf("|%d|%s", c.OpenTime.UnixNano(), c.Close.String())))
	}
	return hex.EncodeToString(h.Sum(nil))
}
