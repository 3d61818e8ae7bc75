package indicators_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/indicators"
	"tradercore/internal/models"
)

// syntheticCandles builds one flat candle (open = high = low = close) per
// closesSeries entry, at consecutive interval open times.
func syntheticCandles(closesSeries []float64, interval models.Interval) []models.Candlestick {
	out := make([]models.Candlestick, len(closesSeries))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closesSeries {
		open := base.Add(time.Duration(i) * interval.Duration())
		out[i] = models.Candlestick{
			Symbol:    "BTCUSDT",
			Interval:  interval,
			OpenTime:  open,
			CloseTime: open.Add(interval.Duration()),
			Open:      decimal.NewFromFloat(c),
			High:      decimal.NewFromFloat(c),
			Low:       decimal.NewFromFloat(c),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromFloat(1000),
		}
	}
	return out
}

func linearSeries(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func flatSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestSMA_EqualsArithmeticMean(t *testing.T) {
	candles := syntheticCandles(linearSeries(100, 1, 50), models.Interval1h)

	got, err := indicators.SMA(candles, 10)
	if err != nil {
		t.Fatalf("SMA returned error: %v", err)
	}

	want := 0.0
	for _, c := range candles[40:50] {
		want += c.CloseFloat()
	}
	want /= 10

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("SMA(10) = %.6f, want %.6f", got, want)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	candles := syntheticCandles(linearSeries(100, 1, 5), models.Interval1h)
	if _, err := indicators.SMA(candles, 10); err != indicators.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRSI_FlatSeriesIsNeutral(t *testing.T) {
	candles := syntheticCandles(flatSeries(50000, 30), models.Interval1h)

	got, err := indicators.RSI(candles, 14)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	if got != 50 {
		t.Errorf("RSI on flat series = %.2f, want 50 (see DESIGN.md Open Question 1)", got)
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	candles := syntheticCandles(linearSeries(100, 1, 20), models.Interval1h)

	got, err := indicators.RSI(candles, 14)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	if got != 100 {
		t.Errorf("RSI on strictly rising series = %.2f, want 100", got)
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	candles := syntheticCandles(linearSeries(200, -1, 20), models.Interval1h)

	got, err := indicators.RSI(candles, 14)
	if err != nil {
		t.Fatalf("RSI returned error: %v", err)
	}
	if got != 0 {
		t.Errorf("RSI on strictly falling series = %.2f, want 0", got)
	}
}

func TestMACD_RequiresSlowPlusSignalMinusOneCandles(t *testing.T) {
	candles := syntheticCandles(linearSeries(100, 1, 10), models.Interval1h)
	if _, err := indicators.MACD(candles, 12, 26, 9); err != indicators.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACD_FastMustBeLessThanSlow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when fast >= slow")
		}
	}()
	candles := syntheticCandles(linearSeries(100, 1, 40), models.Interval1h)
	_, _ = indicators.MACD(candles, 26, 12, 9)
}

func TestBollinger_FlatSeriesCollapsesBands(t *testing.T) {
	candles := syntheticCandles(flatSeries(50000, 20), models.Interval1h)

	got, err := indicators.Bollinger(candles, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger returned error: %v", err)
	}
	if got.Upper != got.Middle || got.Middle != got.Lower {
		t.Errorf("expected collapsed bands on flat series, got %+v", got)
	}
	if got.Bandwidth != 0 {
		t.Errorf("expected bandwidth 0 on flat series, got %.6f", got.Bandwidth)
	}
}

func TestBollinger_PercentB(t *testing.T) {
	candles := syntheticCandles(flatSeries(50000, 20), models.Interval1h)
	band, err := indicators.Bollinger(candles, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger returned error: %v", err)
	}
	// On a collapsed (zero-width) band, PercentB reads as the midpoint 0.5.
	if pb := band.PercentB(50000); pb != 0.5 {
		t.Errorf("PercentB on zero-width band = %.2f, want 0.5", pb)
	}
}
