package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Interval is a candlestick period understood by the connectors.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Duration returns the wall-clock length of the interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Candlestick is an OHLCV summary of one trading interval. Prices and
// volumes are fixed-point decimals; money is never represented as a
// binary float.
type Candlestick struct {
	Symbol      string
	Interval    Interval
	OpenTime    time.Time
	CloseTime   time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	QuoteVolume decimal.Decimal
}

// CloseFloat exposes the close price as float64 for numerical indicator
// computations that have no stable fixed-point formulation (e.g. standard
// deviation). The decimal value remains authoritative for anything that
// settles money.
func (c Candlestick) CloseFloat() float64 {
	f, _ := c.Close.Float64()
	return f
}
