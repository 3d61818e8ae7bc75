package pattern

import (
	"sort"
	"time"

	"tradercore/internal/models"
)

// ApplyOutcome records the result of acting on a pattern match. Usage
// count increments on every outcome, win or loss; success count and
// successRate only move on a win. averageReturn is a running mean over
// every outcome recorded, not just wins.
func ApplyOutcome(p *models.Pattern, pnl float64, successful bool) {
	p.UsageCount++
	if successful {
		p.SuccessCount++
	}
	p.SuccessRate = float64(p.SuccessCount) / float64(p.UsageCount)
	p.AverageReturn += (pnl - p.AverageReturn) / float64(p.UsageCount)
	now := time.Now()
	p.LastUsedAt = &now
}

// PruneOptions bounds which patterns survive a pruning pass. A nil field
// leaves that predicate unenforced.
type PruneOptions struct {
	MaxAge         *time.Duration
	MinSuccessRate *float64
	MinUsageCount  *int
	MaxPatterns    *int
}

// Prune filters patterns against the given predicates, then — if
// MaxPatterns is set — keeps only the top N ranked by successRate, usage
// count as tiebreaker.
func Prune(patterns []models.Pattern, opts PruneOptions, now time.Time) []models.Pattern {
	kept := make([]models.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if opts.MaxAge != nil && now.Sub(p.CreatedAt) > *opts.MaxAge {
			continue
		}
		if opts.MinSuccessRate != nil && p.SuccessRate < *opts.MinSuccessRate {
			continue
		}
		if opts.MinUsageCount != nil && p.UsageCount < *opts.MinUsageCount {
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].SuccessRate != kept[j].SuccessRate {
			return kept[i].SuccessRate > kept[j].SuccessRate
		}
		return kept[i].UsageCount > kept[j].UsageCount
	})

	if opts.MaxPatterns != nil && len(kept) > *opts.MaxPatterns {
		kept = kept[:*opts.MaxPatterns]
	}
	return kept
}
