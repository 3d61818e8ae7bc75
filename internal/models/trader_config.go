package models

import "time"

// StrategyKind names the variant a trader runs. New kinds must be handled
// by strategy.New (internal/strategy) before they are usable here.
type StrategyKind string

const (
	StrategyTrendFollowing StrategyKind = "TREND_FOLLOWING"
	StrategyMeanReversion  StrategyKind = "MEAN_REVERSION"
	StrategyBreakout       StrategyKind = "BREAKOUT"
)

// AITraderConfig is immutable while the trader it describes is running;
// AITrader.UpdateConfig enforces that and forbids changing ID.
type AITraderConfig struct {
	ID                  string
	Name                string
	Exchange            string
	Symbol              string
	VirtualMoney        float64
	MaxStakeAmount      float64
	MaxRiskLevel        int // 1..10
	MaxTradingDuration  time.Duration
	MinReturnPercent    float64
	Strategy            StrategyKind
	CandlestickInterval Interval
}
