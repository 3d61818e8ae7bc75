package storage

import (
	"testing"

	"tradercore/internal/models"
)

func TestConditionSet_ValueScanRoundTrip(t *testing.T) {
	original := conditionSet{
		models.PredicateRSIRange: {Kind: models.ConditionRSIRange, RSILow: 20, RSIHigh: 35},
		models.PredicateMACD:     {Kind: models.ConditionMACD, MACD: 1.5, MACDSignal: 1.1},
	}

	raw, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	bytes, ok := raw.([]byte)
	if !ok {
		t.Fatalf("Value returned %T, want []byte", raw)
	}

	var restored conditionSet
	if err := restored.Scan(bytes); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(restored) != len(original) {
		t.Fatalf("len(restored) = %d, want %d", len(restored), len(original))
	}
	if restored[models.PredicateRSIRange].RSILow != 20 || restored[models.PredicateRSIRange].RSIHigh != 35 {
		t.Errorf("RSI predicate not preserved: %+v", restored[models.PredicateRSIRange])
	}
}

func TestConditionSet_ScanNilClears(t *testing.T) {
	restored := conditionSet{models.PredicateMACD: {Kind: models.ConditionMACD}}
	if err := restored.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if restored != nil {
		t.Errorf("Scan(nil) left %+v, want nil", restored)
	}
}

func TestConditionSet_ScanRejectsNonBytes(t *testing.T) {
	var c conditionSet
	if err := c.Scan(42); err == nil {
		t.Fatal("Scan(42) returned nil error, want type-assertion failure")
	}
}

func TestIndicatorSnapshotJSON_ValueScanRoundTrip(t *testing.T) {
	original := indicatorSnapshotJSON{
		RSI:      62.4,
		MACD:     0.8,
		SMAShort: 101.2,
		SMALong:  99.7,
	}

	raw, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	bytes := raw.([]byte)

	var restored indicatorSnapshotJSON
	if err := restored.Scan(bytes); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if restored.RSI != original.RSI || restored.MACD != original.MACD {
		t.Errorf("restored = %+v, want %+v", restored, original)
	}
}

func TestIndicatorSnapshotJSON_ScanNilZeroes(t *testing.T) {
	restored := indicatorSnapshotJSON{RSI: 99}
	if err := restored.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if restored != (indicatorSnapshotJSON{}) {
		t.Errorf("Scan(nil) left %+v, want zero value", restored)
	}
}
