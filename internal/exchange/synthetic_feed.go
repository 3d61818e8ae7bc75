package exchange

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/models"
)

// syntheticCandleFeed generates deterministic-shape OHLCV history and a
// live candle stream anchored to a connector's current ticker price, so
// the full tick pipeline is exercisable without a live network
// dependency.
type syntheticCandleFeed struct {
	rnd *rand.Rand
}

func newSyntheticCandleFeed() *syntheticCandleFeed {
	return &syntheticCandleFeed{rnd: rand.New(rand.NewSource(1))}
}

// history synthesizes limit candles ending at the given anchor price,
// each interval apart, with tiny deterministic noise around the anchor so
// derived indicators are well-defined but not degenerate.
func (f *syntheticCandleFeed) history(symbol string, interval models.Interval, limit int, anchor decimal.Decimal) []models.Candlestick {
	if limit <= 0 {
		limit = 1
	}
	price, _ := anchor.Float64()
	if price == 0 {
		price = 1
	}
	out := make([]models.Candlestick, limit)
	now := time.Now()
	for i := 0; i < limit; i++ {
		offset := limit - 1 - i
		noise := 1 + (f.rnd.Float64()-0.5)*0.001
		close := price * noise
		openTime := now.Add(-time.Duration(offset) * interval.Duration())
		out[i] = models.Candlestick{
			Symbol:      symbol,
			Interval:    interval,
			OpenTime:    openTime,
			CloseTime:   openTime.Add(interval.Duration()),
			Open:        decimal.NewFromFloat(close),
			High:        decimal.NewFromFloat(close * 1.0005),
			Low:         decimal.NewFromFloat(close * 0.9995),
			Close:       decimal.NewFromFloat(close),
			Volume:      decimal.NewFromFloat(1000 + f.rnd.Float64()*100),
			QuoteVolume: decimal.NewFromFloat((1000 + f.rnd.Float64()*100) * close),
		}
	}
	return out
}

// stream emits one candle per interval tick, sourced from priceFn, until
// ctx is cancelled.
func (f *syntheticCandleFeed) stream(ctx context.Context, symbol string, interval models.Interval, out chan<- models.Candlestick, priceFn func() decimal.Decimal) {
	defer close(out)
	ticker := time.NewTicker(interval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			price := priceFn()
			if price.IsZero() {
				continue
			}
			candle := models.Candlestick{
				Symbol:    symbol,
				Interval:  interval,
				OpenTime:  t.Add(-interval.Duration()),
				CloseTime: t,
				Open:      price,
				High:      price,
				Low:       price,
				Close:     price,
				Volume:    decimal.NewFromFloat(1000),
			}
			select {
			case out <- candle:
			case <-ctx.Done():
				return
			}
		}
	}
}
