package models

import "time"

// SignalAction is the strategy's recommendation for the next tick.
type SignalAction string

const (
	ActionBuy   SignalAction = "BUY"
	ActionSell  SignalAction = "SELL"
	ActionHold  SignalAction = "HOLD"
	ActionClose SignalAction = "CLOSE"
)

// TradingSignal is the output of a Strategy evaluation. HOLD is the
// default whenever data is insufficient or no threshold was met.
type TradingSignal struct {
	Action          SignalAction
	Confidence      float64 // [0,1]
	Reason          string
	Timestamp       time.Time
	IndicatorValues map[string]float64
}

// Hold builds the default do-nothing signal, tagged with why.
func Hold(reason string, indicators map[string]float64) TradingSignal {
	return TradingSignal{
		Action:          ActionHold,
		Confidence:      0,
		Reason:          reason,
		Timestamp:       time.Now(),
		IndicatorValues: indicators,
	}
}
