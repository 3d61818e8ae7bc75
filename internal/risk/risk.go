// Package risk implements the pre-trade gate that every order submission
// must pass: leverage caps, exposure caps, daily loss caps, and the
// no-hedging rule. A denial is fatal for that tick and is never retried.
package risk

import (
	"context"
	"sync"
	"time"

	"tradercore/internal/observability"
)

// Limits are the configurable thresholds a Manager enforces. All are
// per-trader unless noted.
type Limits struct {
	MaxLeverage      int     // leverage above this is denied outright
	LeverageCap      float64 // total open notional must stay <= Budget*LeverageCap
	MaxOpenPositions int     // default 3
	MaxDailyLoss     float64 // magnitude; realized loss today must stay >= -MaxDailyLoss
	AllowHedging     bool    // false => at most one open position per symbol
}

// DefaultLimits mirrors DefaultAuthorizationGate's role as the
// out-of-the-box configuration: permissive enough to trade, strict
// enough to bound blast radius.
func DefaultLimits() Limits {
	return Limits{
		MaxLeverage:      10,
		LeverageCap:      3.0,
		MaxOpenPositions: 3,
		MaxDailyLoss:     500,
		AllowHedging:     false,
	}
}

// PositionSnapshot is the minimal view a Manager needs of a trader's open
// exposure. PositionManager satisfies this without internal/risk importing
// internal/position, avoiding a cycle.
type PositionSnapshot struct {
	Symbol   string
	Notional float64
}

// PositionsView reports a trader's currently open positions.
type PositionsView interface {
	OpenPositions(traderID string) []PositionSnapshot
}

// Decision is the outcome of a canOpenPosition check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true, Reason: "all risk checks passed"} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// AuditSink receives one event per risk decision. Supplying nil disables
// auditing beyond the structured log line Manager always emits.
type AuditSink interface {
	PublishRiskDecision(traderID string, decision Decision, notional float64, leverage int)
}

type dailyLoss struct {
	day      time.Time // truncated to UTC midnight
	realized float64   // negative = net loss for the day
}

// Manager is the gate called before every order. It is safe
// for concurrent use.
type Manager struct {
	log       *observability.Logger
	limits    Limits
	positions PositionsView
	audit     AuditSink

	mu    sync.Mutex
	daily map[string]dailyLoss // traderID -> today's realized P&L
}

// New constructs a Manager. positions may not be nil; audit may be nil.
func New(limits Limits, positions PositionsView, audit AuditSink) *Manager {
	return &Manager{
		log:       observability.New("risk"),
		limits:    limits,
		positions: positions,
		audit:     audit,
		daily:     make(map[string]dailyLoss),
	}
}

// CanOpenPosition runs the five risk checks in order and returns the
// first denial, or an allow decision if all pass. budget is the
// trader's configured VirtualMoney/MaxStakeAmount ceiling used to size the
// LeverageCap check.
func (m *Manager) CanOpenPosition(traderID, symbol string, notional float64, leverage int, budget float64) Decision {
	decision := m.evaluate(traderID, symbol, notional, leverage, budget)
	m.log.Info(context.Background(), "risk decision", map[string]any{
		"trader_id": traderID,
		"symbol":    symbol,
		"notional":  notional,
		"leverage":  leverage,
		"allowed":   decision.Allowed,
		"reason":    decision.Reason,
	})
	if m.audit != nil {
		m.audit.PublishRiskDecision(traderID, decision, notional, leverage)
	}
	return decision
}

func (m *Manager) evaluate(traderID, symbol string, notional float64, leverage int, budget float64) Decision {
	if leverage > m.limits.MaxLeverage {
		return deny("leverage exceeds configured maximum")
	}

	open := m.positions.OpenPositions(traderID)

	totalNotional := notional
	sameSymbolCount := 0
	for _, p := range open {
		totalNotional += p.Notional
		if p.Symbol == symbol {
			sameSymbolCount++
		}
	}

	if budget > 0 && totalNotional > budget*m.limits.LeverageCap {
		return deny("total open notional would exceed budget times leverage cap")
	}

	if len(open) >= m.limits.MaxOpenPositions {
		return deny("open position count at or above configured cap")
	}

	if !m.limits.AllowHedging && sameSymbolCount >= 1 {
		return deny("a position in this symbol is already open and hedging is disabled")
	}

	if m.limits.MaxDailyLoss > 0 {
		m.mu.Lock()
		entry, ok := m.daily[traderID]
		m.mu.Unlock()
		if ok && sameUTCDay(entry.day, time.Now()) && entry.realized < -m.limits.MaxDailyLoss {
			return deny("cumulative realized loss for today is beyond the daily loss limit")
		}
	}

	return allow()
}

// RecordRealizedPnL accumulates a trader's realized P&L for the current UTC
// day, rolling over to a fresh total at midnight. Call this whenever a
// position closes.
func (m *Manager) RecordRealizedPnL(traderID string, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	entry, ok := m.daily[traderID]
	if !ok || !sameUTCDay(entry.day, now) {
		entry = dailyLoss{day: now}
	}
	entry.realized += amount
	m.daily[traderID] = entry
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
