package models

import "time"

// PredicateKey names a single condition stored on a Pattern.
type PredicateKey string

const (
	PredicateRSIRange    PredicateKey = "RSI_Range"
	PredicateMACD        PredicateKey = "MACD"
	PredicateBollinger   PredicateKey = "BollingerBands"
	PredicatePatternType PredicateKey = "patternType"
	PredicateEntryPrice  PredicateKey = "entryPrice"
	PredicatePriceRange  PredicateKey = "priceRange"
)

// ConditionValue is a tagged variant over the heterogeneous predicate
// shapes a Pattern can store. Exactly one field group is populated,
// selected by Kind; this replaces the source's untyped string->Any map
// so relevance scoring can dispatch on a closed set of
// cases instead of type-asserting an interface{}.
type ConditionValue struct {
	Kind ConditionKind

	// Kind == ConditionRSIRange
	RSILow, RSIHigh float64

	// Kind == ConditionMACD
	MACD, MACDSignal, MACDHistogram float64

	// Kind == ConditionBollinger
	BollingerUpper, BollingerMiddle, BollingerLower, Bandwidth float64
	PercentB                                                   *float64

	// Kind == ConditionPatternType
	PatternType PatternType

	// Kind == ConditionEntryPrice
	EntryPrice float64

	// Kind == ConditionPriceRange
	PriceLow, PriceHigh float64
}

// ConditionKind discriminates ConditionValue's active fields.
type ConditionKind int

const (
	ConditionRSIRange ConditionKind = iota
	ConditionMACD
	ConditionBollinger
	ConditionPatternType
	ConditionEntryPrice
	ConditionPriceRange
)

// PatternType classifies the market behavior a Pattern was extracted from.
type PatternType string

const (
	PatternOversoldReversal     PatternType = "OVERSOLD_REVERSAL"
	PatternOverboughtReversal   PatternType = "OVERBOUGHT_REVERSAL"
	PatternTrendFollowing       PatternType = "TREND_FOLLOWING"
	PatternMomentumContinuation PatternType = "MOMENTUM_CONTINUATION"
	PatternCustom               PatternType = "CUSTOM"
)

// Pattern is a fingerprint of a previously profitable trade, stored for
// later relevance matching against live MarketConditions.
type Pattern struct {
	ID            string
	Exchange      string
	Symbol        string
	Timeframe     Interval
	Action        SignalAction
	Conditions    map[PredicateKey]ConditionValue
	Confidence    float64
	Active        bool
	CreatedAt     time.Time
	LastUsedAt    *time.Time
	UsageCount    int
	SuccessCount  int
	SuccessRate   float64
	AverageReturn float64
}

// MarketConditions is the snapshot the pattern matcher scores patterns
// against.
type MarketConditions struct {
	Exchange     string
	Symbol       string
	CurrentPrice float64
	Indicators   map[string]float64
	Timestamp    time.Time
}
