package storage

import (
	"time"

	"tradercore/internal/models"
)

// patternRow is the persisted row backing models.Pattern, grounded on
// internal/repositories/playbook_repository.go's models.PlaybookRule row
// generalized from its fixed rule fields to the Conditions jsonb blob
// this module's Pattern carries.
type patternRow struct {
	ID            string `gorm:"primaryKey"`
	Exchange      string `gorm:"index"`
	Symbol        string `gorm:"index"`
	Timeframe     string
	Action        string
	Conditions    conditionSet `gorm:"type:jsonb"`
	Confidence    float64
	Active        bool `gorm:"index"`
	CreatedAt     time.Time
	LastUsedAt    *time.Time
	UsageCount    int
	SuccessCount  int
	SuccessRate   float64
	AverageReturn float64
}

func (patternRow) TableName() string { return "patterns" }

func (r patternRow) toDomain() models.Pattern {
	return models.Pattern{
		ID:            r.ID,
		Exchange:      r.Exchange,
		Symbol:        r.Symbol,
		Timeframe:     models.Interval(r.Timeframe),
		Action:        models.SignalAction(r.Action),
		Conditions:    map[models.PredicateKey]models.ConditionValue(r.Conditions),
		Confidence:    r.Confidence,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
		LastUsedAt:    r.LastUsedAt,
		UsageCount:    r.UsageCount,
		SuccessCount:  r.SuccessCount,
		SuccessRate:   r.SuccessRate,
		AverageReturn: r.AverageReturn,
	}
}

func patternRowFromDomain(p models.Pattern) patternRow {
	return patternRow{
		ID:            p.ID,
		Exchange:      p.Exchange,
		Symbol:        p.Symbol,
		Timeframe:     string(p.Timeframe),
		Action:        string(p.Action),
		Conditions:    conditionSet(p.Conditions),
		Confidence:    p.Confidence,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		LastUsedAt:    p.LastUsedAt,
		UsageCount:    p.UsageCount,
		SuccessCount:  p.SuccessCount,
		SuccessRate:   p.SuccessRate,
		AverageReturn: p.AverageReturn,
	}
}
