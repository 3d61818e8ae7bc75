package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/models"
)

func TestRelevance_MatchingSymbolHighSimilarity(t *testing.T) {
	lastUsed := time.Now().Add(-24 * time.Hour)
	p := models.Pattern{
		Exchange: "binance",
		Symbol:   "BTCUSDT",
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 60, RSIHigh: 70},
		},
		SuccessRate: 0.85,
		UsageCount:  8,
		LastUsedAt:  &lastUsed,
	}
	cond := models.MarketConditions{
		Exchange:     "binance",
		Symbol:       "BTCUSDT",
		CurrentPrice: 50000,
		Indicators:   map[string]float64{"RSI": 65},
		Timestamp:    time.Now(),
	}

	got := Relevance(p, cond, time.Now())
	if got < 0.8 {
		t.Fatalf("relevance = %v, want >= 0.8", got)
	}
}

func TestRelevance_SymbolMismatchIsZero(t *testing.T) {
	lastUsed := time.Now().Add(-24 * time.Hour)
	p := models.Pattern{
		Exchange: "binance",
		Symbol:   "BTCUSDT",
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 60, RSIHigh: 70},
		},
		SuccessRate: 0.85,
		UsageCount:  8,
		LastUsedAt:  &lastUsed,
	}
	cond := models.MarketConditions{
		Exchange:     "binance",
		Symbol:       "ETHUSDT",
		CurrentPrice: 3000,
		Indicators:   map[string]float64{"RSI": 65},
	}

	got := Relevance(p, cond, time.Now())
	if got != 0 {
		t.Fatalf("relevance = %v, want 0 on symbol mismatch", got)
	}
}

func TestRelevance_RSIOutsideRangeDecays(t *testing.T) {
	lastUsed := time.Now().Add(-24 * time.Hour)
	p := models.Pattern{
		Symbol: "BTCUSDT",
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 60, RSIHigh: 70},
		},
		SuccessRate: 0.85,
		UsageCount:  8,
		LastUsedAt:  &lastUsed,
	}
	near := Relevance(p, models.MarketConditions{Symbol: "BTCUSDT", Indicators: map[string]float64{"RSI": 65}}, time.Now())
	far := Relevance(p, models.MarketConditions{Symbol: "BTCUSDT", Indicators: map[string]float64{"RSI": 95}}, time.Now())
	if far >= near {
		t.Fatalf("far relevance %v should be less than near relevance %v", far, near)
	}
}

func TestExtract_AboveThresholdProducesPattern(t *testing.T) {
	trade := models.TradeRecord{
		Exchange:   "binance",
		Symbol:     "BTCUSDT",
		Side:       models.SideLong,
		EntryPrice: decimal.NewFromFloat(50000),
		ProfitLoss: decimal.NewFromFloat(250),
		Indicators: models.IndicatorSnapshot{RSI: 28, MACD: 1.2, SMAShort: 101, SMALong: 100},
	}

	p, ok := Extract(trade, models.Interval1h, 100)
	if !ok {
		t.Fatal("expected pattern extraction to succeed")
	}
	if p.Symbol != "BTCUSDT" || p.Action != models.ActionBuy {
		t.Fatalf("unexpected pattern fields: %+v", p)
	}
	cv, ok := p.Conditions[models.PredicatePatternType]
	if !ok || cv.PatternType != models.PatternOversoldReversal {
		t.Fatalf("expected OVERSOLD_REVERSAL classification, got %+v", cv)
	}
}

func TestExtract_BelowThresholdIsSkipped(t *testing.T) {
	trade := models.TradeRecord{
		ProfitLoss: decimal.NewFromFloat(10),
	}
	_, ok := Extract(trade, models.Interval1h, 100)
	if ok {
		t.Fatal("expected extraction to be skipped below threshold")
	}
}

func TestApplyOutcome_RunningMeanAndSuccessRate(t *testing.T) {
	p := &models.Pattern{}

	ApplyOutcome(p, 100, true)
	if p.UsageCount != 1 || p.SuccessCount != 1 || p.SuccessRate != 1 {
		t.Fatalf("after first win: %+v", p)
	}
	if p.AverageReturn != 100 {
		t.Fatalf("average return = %v, want 100", p.AverageReturn)
	}

	ApplyOutcome(p, -50, false)
	if p.UsageCount != 2 || p.SuccessCount != 1 {
		t.Fatalf("after loss: %+v", p)
	}
	if p.SuccessRate != 0.5 {
		t.Fatalf("success rate = %v, want 0.5", p.SuccessRate)
	}
	wantAvg := 25.0 // (100 + -50) / 2
	if p.AverageReturn != wantAvg {
		t.Fatalf("average return = %v, want %v", p.AverageReturn, wantAvg)
	}
}

func TestPrune_FiltersAndRanksTopN(t *testing.T) {
	now := time.Now()
	old := now.Add(-100 * 24 * time.Hour)
	patterns := []models.Pattern{
		{ID: "a", SuccessRate: 0.9, UsageCount: 20, CreatedAt: now},
		{ID: "b", SuccessRate: 0.95, UsageCount: 3, CreatedAt: now},
		{ID: "c", SuccessRate: 0.2, UsageCount: 50, CreatedAt: now},
		{ID: "d", SuccessRate: 0.99, UsageCount: 99, CreatedAt: old}, // too old
	}
	maxAge := 30 * 24 * time.Hour
	minRate := 0.5
	maxN := 2

	got := Prune(patterns, PruneOptions{MaxAge: &maxAge, MinSuccessRate: &minRate, MaxPatterns: &maxN}, now)
	if len(got) != 2 {
		t.Fatalf("got %d patterns, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
}

func TestMemoryStore_CreateFindUpdateDeactivate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rsi := 65.0
	p := models.Pattern{
		Symbol:    "BTCUSDT",
		Timeframe: models.Interval1h,
		Action:    models.ActionBuy,
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 60, RSIHigh: 70},
		},
		Confidence: 0.6,
	}

	id, err := store.Create(ctx, p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	matches, err := store.FindMatching(ctx, "BTCUSDT", models.Interval1h, models.ActionBuy, &rsi, nil, 0.5)
	if err != nil || len(matches) != 1 {
		t.Fatalf("FindMatching: got %d matches, err=%v", len(matches), err)
	}

	if err := store.UpdateStatistics(ctx, id, 120, true); err != nil {
		t.Fatalf("UpdateStatistics: %v", err)
	}
	stored, err := store.FindByID(ctx, id)
	if err != nil || stored == nil || stored.UsageCount != 1 {
		t.Fatalf("FindByID after update: %+v, err=%v", stored, err)
	}

	if err := store.Deactivate(ctx, id); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	active, err := store.FindActive(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("expected no active patterns after deactivate, got %d", len(active))
	}

	if err := store.Activate(ctx, id); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	active, err = store.FindActive(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("expected 1 active pattern after reactivate, got %d", len(active))
	}
}
