package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
	"tradercore/internal/pattern"
)

// PatternRepository is the Postgres-backed repository.PatternRepository,
// grounded on internal/repositories/playbook_repository.go's gorm query
// shape, mirroring internal/pattern.MemoryStore's semantics (the
// in-process reference implementation the two are kept consistent with)
// against real rows instead of a map.
type PatternRepository struct {
	db *gorm.DB
}

// NewPatternRepository constructs a PatternRepository over an already-
// connected, already-migrated db (see Connect).
func NewPatternRepository(db *gorm.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

var _ repository.PatternRepository = (*PatternRepository)(nil)

func (r *PatternRepository) Create(ctx context.Context, p models.Pattern) (string, error) {
	row := patternRowFromDomain(p)
	row.ID = fmt.Sprintf("pattern-%s", uuid.NewString())
	row.Active = true
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (r *PatternRepository) UpdateStatistics(ctx context.Context, patternID string, pnl float64, successful bool) error {
	var row patternRow
	if err := r.db.WithContext(ctx).Where("id = ?", patternID).First(&row).Error; err != nil {
		return err
	}
	p := row.toDomain()
	pattern.ApplyOutcome(&p, pnl, successful)
	updated := patternRowFromDomain(p)
	return r.db.WithContext(ctx).Model(&patternRow{}).Where("id = ?", patternID).Updates(map[string]any{
		"usage_count":    updated.UsageCount,
		"success_count":  updated.SuccessCount,
		"success_rate":   updated.SuccessRate,
		"average_return": updated.AverageReturn,
		"last_used_at":   updated.LastUsedAt,
	}).Error
}

func (r *PatternRepository) FindByID(ctx context.Context, patternID string) (*models.Pattern, error) {
	var row patternRow
	err := r.db.WithContext(ctx).Where("id = ?", patternID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

func (r *PatternRepository) FindActive(ctx context.Context) ([]models.Pattern, error) {
	var rows []patternRow
	err := r.db.WithContext(ctx).Where("active = ?", true).Find(&rows).Error
	return patternRowsToDomain(rows), err
}

func (r *PatternRepository) FindBySymbol(ctx context.Context, symbol string) ([]models.Pattern, error) {
	var rows []patternRow
	err := r.db.WithContext(ctx).Where("active = ? AND symbol = ?", true, symbol).Find(&rows).Error
	return patternRowsToDomain(rows), err
}

// FindMatching narrows candidates with a SQL predicate on the indexed
// columns, then applies the RSI/MACD predicate check in Go since those
// live inside the jsonb Conditions blob a WHERE clause can't reach.
func (r *PatternRepository) FindMatching(ctx context.Context, symbol string, timeframe models.Interval, action models.SignalAction, rsi, macd *float64, minConfidence float64) ([]models.Pattern, error) {
	var rows []patternRow
	err := r.db.WithContext(ctx).
		Where("active = ? AND symbol = ? AND timeframe = ? AND action = ? AND confidence >= ?",
			true, symbol, string(timeframe), string(action), minConfidence).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Pattern, 0, len(rows))
	for _, row := range rows {
		p := row.toDomain()
		if satisfiesReadings(p, rsi, macd) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetTop returns the limit best-performing patterns with at least
// minOccurrences recorded uses, ranked by successRate then usage count,
// mirroring internal/pattern.Prune's ranking; like MemoryStore.GetTop it
// applies only the usage floor, not Prune's MaxAge filter.
func (r *PatternRepository) GetTop(ctx context.Context, limit, minOccurrences int) ([]models.Pattern, error) {
	var rows []patternRow
	q := r.db.WithContext(ctx).
		Where("usage_count >= ?", minOccurrences).
		Order("success_rate desc, usage_count desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return patternRowsToDomain(rows), err
}

func (r *PatternRepository) Deactivate(ctx context.Context, patternID string) error {
	return r.setActive(ctx, patternID, false)
}

func (r *PatternRepository) Activate(ctx context.Context, patternID string) error {
	return r.setActive(ctx, patternID, true)
}

func (r *PatternRepository) setActive(ctx context.Context, patternID string, active bool) error {
	result := r.db.WithContext(ctx).Model(&patternRow{}).Where("id = ?", patternID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("storage: pattern %s not found", patternID)
	}
	return nil
}

func patternRowsToDomain(rows []patternRow) []models.Pattern {
	out := make([]models.Pattern, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

// satisfiesReadings mirrors internal/pattern.MemoryStore's unexported
// predicate check: a pattern matches unless a present RSI or MACD
// condition is violated by the supplied reading.
func satisfiesReadings(p models.Pattern, rsi, macd *float64) bool {
	const macdTolerance = 1.0
	for _, cv := range p.Conditions {
		switch cv.Kind {
		case models.ConditionRSIRange:
			if rsi != nil && (*rsi < cv.RSILow || *rsi > cv.RSIHigh) {
				return false
			}
		case models.ConditionMACD:
			if macd != nil {
				diff := cv.MACD - *macd
				if diff < 0 {
					diff = -diff
				}
				if diff >= macdTolerance {
					return false
				}
			}
		}
	}
	return true
}
