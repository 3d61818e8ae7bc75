package storage

import (
	"testing"
	"time"

	"tradercore/internal/models"
)

func TestPatternRow_DomainRoundTrip(t *testing.T) {
	used := time.Now()
	original := models.Pattern{
		ID:        "pattern-1",
		Exchange:  "BINANCE",
		Symbol:    "ETHUSDT",
		Timeframe: models.Interval1h,
		Action:    models.ActionBuy,
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 25, RSIHigh: 40},
		},
		Confidence:    0.72,
		Active:        true,
		CreatedAt:     used.Add(-time.Hour),
		LastUsedAt:    &used,
		UsageCount:    4,
		SuccessCount:  3,
		SuccessRate:   0.75,
		AverageReturn: 1.2,
	}

	row := patternRowFromDomain(original)
	restored := row.toDomain()

	if restored.ID != original.ID || restored.Symbol != original.Symbol {
		t.Fatalf("identifiers not preserved: %+v", restored)
	}
	if restored.Timeframe != original.Timeframe || restored.Action != original.Action {
		t.Errorf("Timeframe/Action not preserved: %+v", restored)
	}
	if len(restored.Conditions) != 1 {
		t.Fatalf("Conditions lost in round trip: %+v", restored.Conditions)
	}
	if restored.UsageCount != original.UsageCount || restored.SuccessRate != original.SuccessRate {
		t.Errorf("stats not preserved: %+v", restored)
	}
	if row.TableName() != "patterns" {
		t.Errorf("TableName() = %q, want \"patterns\"", row.TableName())
	}
}

func TestSatisfiesReadings_RSIOutsideRangeRejects(t *testing.T) {
	p := models.Pattern{
		Conditions: map[models.PredicateKey]models.ConditionValue{
			models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 20, RSIHigh: 30},
		},
	}
	inRange := 25.0
	outOfRange := 80.0

	if !satisfiesReadings(p, &inRange, nil) {
		t.Error("expected in-range RSI to satisfy the pattern")
	}
	if satisfiesReadings(p, &outOfRange, nil) {
		t.Error("expected out-of-range RSI to reject the pattern")
	}
}

func TestSatisfiesReadings_NoConditionsAlwaysMatches(t *testing.T) {
	p := models.Pattern{}
	if !satisfiesReadings(p, nil, nil) {
		t.Error("a pattern with no conditions should always match")
	}
}
