package pattern

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
	"tradercore/internal/observability"
)

var _ repository.PatternRepository = (*MemoryStore)(nil)

// MemoryStore is an in-process repository.PatternRepository, the
// reference implementation the Postgres-backed adapter mirrors. Safe for
// concurrent use.
type MemoryStore struct {
	log *observability.Logger

	mu       sync.Mutex
	patterns map[string]*models.Pattern
	seq      uint64
}

// NewMemoryStore returns an empty pattern store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		log:      observability.New("pattern-store"),
		patterns: make(map[string]*models.Pattern),
	}
}

func (s *MemoryStore) nextID() string {
	s.seq++
	return fmt.Sprintf("pattern-%06d", s.seq)
}

// Create inserts a pattern and returns its assigned id.
func (s *MemoryStore) Create(ctx context.Context, p models.Pattern) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID()
	p.Active = true
	stored := p
	s.patterns[p.ID] = &stored
	s.log.Info(ctx, "pattern stored", map[string]any{"id": p.ID, "symbol": p.Symbol, "type": patternTypeOf(p)})
	return p.ID, nil
}

// UpdateStatistics records an outcome against a previously stored pattern.
func (s *MemoryStore) UpdateStatistics(ctx context.Context, patternID string, pnl float64, successful bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[patternID]
	if !ok {
		return fmt.Errorf("pattern: %s not found", patternID)
	}
	ApplyOutcome(p, pnl, successful)
	return nil
}

// FindByID returns a copy of the stored pattern, or nil if absent.
func (s *MemoryStore) FindByID(ctx context.Context, patternID string) (*models.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[patternID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

// FindActive returns every pattern not deactivated.
func (s *MemoryStore) FindActive(ctx context.Context) ([]models.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindBySymbol returns every active pattern for the given symbol.
func (s *MemoryStore) FindBySymbol(ctx context.Context, symbol string) ([]models.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Pattern, 0)
	for _, p := range s.patterns {
		if p.Active && p.Symbol == symbol {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindMatching returns active patterns for symbol/timeframe/action whose
// RSI and MACD predicates (when present) are satisfied by the supplied
// readings, filtered to at least minConfidence.
func (s *MemoryStore) FindMatching(ctx context.Context, symbol string, timeframe models.Interval, action models.SignalAction, rsi, macd *float64, minConfidence float64) ([]models.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Pattern, 0)
	for _, p := range s.patterns {
		if !p.Active || p.Symbol != symbol || p.Timeframe != timeframe || p.Action != action {
			continue
		}
		if p.Confidence < minConfidence {
			continue
		}
		if !satisfiesReadings(*p, rsi, macd) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func satisfiesReadings(p models.Pattern, rsi, macd *float64) bool {
	for _, cv := range p.Conditions {
		switch cv.Kind {
		case models.ConditionRSIRange:
			if rsi != nil && (*rsi < cv.RSILow || *rsi > cv.RSIHigh) {
				return false
			}
		case models.ConditionMACD:
			if macd != nil && scaledSimilarity(cv.MACD, *macd, macdTolerance) <= 0 {
				return false
			}
		}
	}
	return true
}

// GetTop returns the limit best-performing patterns with at least
// minOccurrences recorded uses, ranked by successRate then usage count.
func (s *MemoryStore) GetTop(ctx context.Context, limit, minOccurrences int) ([]models.Pattern, error) {
	s.mu.Lock()
	all := make([]models.Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		all = append(all, *p)
	}
	s.mu.Unlock()

	minUsage := minOccurrences
	pruned := Prune(all, PruneOptions{MinUsageCount: &minUsage}, time.Now())
	if limit > 0 && len(pruned) > limit {
		pruned = pruned[:limit]
	}
	return pruned, nil
}

// Deactivate flags a pattern so FindActive/FindMatching stop surfacing it.
func (s *MemoryStore) Deactivate(ctx context.Context, patternID string) error {
	return s.setActive(patternID, false)
}

// Activate reverses Deactivate.
func (s *MemoryStore) Activate(ctx context.Context, patternID string) error {
	return s.setActive(patternID, true)
}

func (s *MemoryStore) setActive(patternID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[patternID]
	if !ok {
		return fmt.Errorf("pattern: %s not found", patternID)
	}
	p.Active = active
	return nil
}

func patternTypeOf(p models.Pattern) models.PatternType {
	if cv, ok := p.Conditions[models.PredicatePatternType]; ok {
		return cv.PatternType
	}
	return models.PatternCustom
}
