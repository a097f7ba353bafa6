// Package services – model tier selection
//
// Tiers are tried strictly in ascending priority order. Usage-based gating
// only applies to free tiers; the paid tier is the unconditional last resort
// with no pre-check, only an implicit per-call cost record.
package services

import (
	"sort"

	"github.com/raphiebot/go-discord-relay/internal/domain"
)

// UsageFunc reports today's completed-call count for a model. Lookup failures
// are treated as zero usage by the selector: ledger reads are auxiliary and
// must not block a reply.
type UsageFunc func(modelID string) (int, error)

// DefaultTiers is the static tier table defined at process start.
func DefaultTiers() []domain.ModelTier {
	return []domain.ModelTier{
		{
			Name:       "Gemini 2.5 Flash Lite",
			ModelID:    "google/gemini-2.5-flash-lite",
			Kind:       domain.TierFree,
			DailyLimit: 600,
			Priority:   1,
		},
		{
			Name:     "GPT-OSS-120B",
			ModelID:  "openai/gpt-oss-120b",
			Kind:     domain.TierPaid,
			Priority: 2,
		},
	}
}

// SelectCandidates returns the tiers to attempt, in order: free tiers whose
// daily budget is not exhausted (priority ascending), then paid tiers
// (priority ascending). Pure over the usage lookup, so tier logic is testable
// without a network or database.
func SelectCandidates(tiers []domain.ModelTier, usage UsageFunc) []domain.ModelTier {
	ordered := make([]domain.ModelTier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var free, paid []domain.ModelTier
	for _, t := range ordered {
		if t.Paid() {
			paid = append(paid, t)
			continue
		}
		used := 0
		if usage != nil {
			if n, err := usage(t.ModelID); err == nil {
				used = n
			}
		}
		if t.Unbounded() || used < t.DailyLimit {
			free = append(free, t)
		}
	}
	return append(free, paid...)
}
