package risk_test

import (
	"testing"

	"tradercore/internal/risk"
)

type fakePositions struct {
	open []risk.PositionSnapshot
}

func (f fakePositions) OpenPositions(traderID string) []risk.PositionSnapshot { return f.open }

func TestCanOpenPosition_DeniesLeverageAboveMax(t *testing.T) {
	m := risk.New(risk.DefaultLimits(), fakePositions{}, nil)
	d := m.CanOpenPosition("trader-1", "BTCUSDT", 1000, 20, 10000)
	if d.Allowed {
		t.Fatal("expected denial for leverage above configured maximum")
	}
}

func TestCanOpenPosition_DeniesOverLeverageCapExposure(t *testing.T) {
	limits := risk.DefaultLimits()
	m := risk.New(limits, fakePositions{}, nil)
	// budget 1000, leverage cap 3.0 -> ceiling 3000 notional
	d := m.CanOpenPosition("trader-1", "BTCUSDT", 3500, 2, 1000)
	if d.Allowed {
		t.Fatal("expected denial when notional exceeds budget*leverageCap")
	}
}

func TestCanOpenPosition_DeniesOpenPositionCap(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.MaxOpenPositions = 2
	positions := fakePositions{open: []risk.PositionSnapshot{
		{Symbol: "BTCUSDT", Notional: 100},
		{Symbol: "ETHUSDT", Notional: 100},
	}}
	m := risk.New(limits, positions, nil)
	d := m.CanOpenPosition("trader-1", "SOLUSDT", 100, 1, 10000)
	if d.Allowed {
		t.Fatal("expected denial at the open position cap")
	}
}

func TestCanOpenPosition_DeniesHedgingWhenDisabled(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.AllowHedging = false
	positions := fakePositions{open: []risk.PositionSnapshot{{Symbol: "BTCUSDT", Notional: 100}}}
	m := risk.New(limits, positions, nil)
	d := m.CanOpenPosition("trader-1", "BTCUSDT", 100, 1, 10000)
	if d.Allowed {
		t.Fatal("expected denial on a same-symbol position when hedging is disabled")
	}
}

func TestCanOpenPosition_AllowsWithinAllLimits(t *testing.T) {
	m := risk.New(risk.DefaultLimits(), fakePositions{}, nil)
	d := m.CanOpenPosition("trader-1", "BTCUSDT", 500, 2, 10000)
	if !d.Allowed {
		t.Fatalf("expected allow, got denial: %s", d.Reason)
	}
}

func TestCanOpenPosition_DeniesBeyondDailyLossLimit(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.MaxDailyLoss = 200
	m := risk.New(limits, fakePositions{}, nil)
	m.RecordRealizedPnL("trader-1", -150)
	m.RecordRealizedPnL("trader-1", -60)

	d := m.CanOpenPosition("trader-1", "BTCUSDT", 100, 1, 10000)
	if d.Allowed {
		t.Fatal("expected denial once cumulative realized loss goes beyond the daily limit")
	}
}

func TestCanOpenPosition_AllowsBelowDailyLossLimit(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.MaxDailyLoss = 200
	m := risk.New(limits, fakePositions{}, nil)
	m.RecordRealizedPnL("trader-1", -50)

	d := m.CanOpenPosition("trader-1", "BTCUSDT", 100, 1, 10000)
	if !d.Allowed {
		t.Fatalf("expected allow below the daily loss limit, got denial: %s", d.Reason)
	}
}
