package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the runtime view of an open exchange position.
// Invariant: Quantity > 0; UnrealizedPnL is always derivable from the other
// fields via PnL below, never stored independently of them.
type Position struct {
	Symbol       string
	Side         Side
	Quantity     decimal.Decimal
	EntryPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
	Leverage     decimal.Decimal
	OpenedAt     time.Time
}

// PnL computes (current-entry)*qty*leverage for LONG, negated for SHORT.
// Sign is positive for profit. This is the single source of truth for P&L;
// callers must not cache a derived value that can drift from it.
func (p Position) PnL() decimal.Decimal {
	delta := p.CurrentPrice.Sub(p.EntryPrice)
	pnl := delta.Mul(p.Quantity).Mul(p.Leverage)
	if p.Side == SideShort {
		pnl = pnl.Neg()
	}
	return pnl
}

// ExitReason records why a position or trade was closed.
type ExitReason string

const (
	ExitReasonSignal     ExitReason = "SIGNAL"
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
	ExitReasonTakeProfit ExitReason = "TAKE_PROFIT"
	ExitReasonManual     ExitReason = "MANUAL"
	ExitReasonOrphaned   ExitReason = "ORPHANED"
)

// ManagedPosition wraps a Position with the protective state and
// persistence linkage the PositionManager tracks while the position is
// live.
//
// Invariant: when TrailingActivated, TrailingDistance > 0 and
// TrailingReferencePrice >= EntryPrice for LONG (<= for SHORT); a trailing
// update never worsens (lowers, for LONG) the existing stop.
type ManagedPosition struct {
	PositionID             string
	TraderID               string
	Exchange               string
	Position               Position
	PersistenceHandle      string // opaque TradeRepository row id; "" until persisted
	Indicators             IndicatorSnapshot
	PatternID              string
	StopLossPrice          decimal.Decimal
	HasStopLoss            bool
	TakeProfitPrice        decimal.Decimal
	HasTakeProfit          bool
	TrailingActivated      bool
	TrailingDistance       decimal.Decimal
	TrailingReferencePrice decimal.Decimal
	LastUpdated            time.Time
}

// TradeRecord is the persisted, flattened form of a ManagedPosition across
// its full open-to-close lifecycle. Exit fields are the zero value iff
// Status == TradeOpen.
type TradeRecord struct {
	TradeID           string
	TraderID          string
	Exchange          string
	Symbol            string
	Side              Side
	Leverage          decimal.Decimal
	EntryPrice        decimal.Decimal
	EntryAmount       decimal.Decimal
	EntryTimestamp    time.Time
	EntryOrderID      string
	ExitPrice         decimal.Decimal
	ExitAmount        decimal.Decimal
	ExitTimestamp     time.Time
	ExitOrderID       string
	ExitReason        ExitReason
	ProfitLoss        decimal.Decimal
	ProfitLossPercent decimal.Decimal
	Fees              decimal.Decimal
	StopLossPrice     decimal.Decimal
	TakeProfitPrice   decimal.Decimal
	TrailingActivated bool
	Indicators        IndicatorSnapshot
	Status            TradeStatus
	PatternID         string
}

// TradeStatus mirrors the persisted `status` column.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// IndicatorSnapshot is the subset of indicator readings captured alongside
// a trade for later pattern extraction.
type IndicatorSnapshot struct {
	RSI      float64
	MACD     float64
	SMAShort float64
	SMALong  float64
}
