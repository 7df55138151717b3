package promptctx

import "sort"

// RankedNote is one candidate note scored for relevance to the current
// turn, before tier assignment.
type RankedNote struct {
	Slug      string
	Relevance float64
	Title     string
	Body      string
	Summary   string
	Tags      []string
	Outgoing  []string
}

// TierConfig holds the three inclusion thresholds and per-tier slot counts
// from the context.* configuration surface (§4.5, §6).
type TierConfig struct {
	ThresholdFull    float64
	ThresholdSummary float64
	ThresholdTitle   float64
	MaxFull          int
	MaxSummary       int
	MaxTitle         int
}

// DefaultTierConfig returns the spec's documented defaults.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		ThresholdFull:    0.8,
		ThresholdSummary: 0.5,
		ThresholdTitle:   0.2,
		MaxFull:          3,
		MaxSummary:       5,
		MaxTitle:         10,
	}
}

// AssignTiers walks ranked notes from highest relevance down (ties broken
// by slug for determinism) and places each in the highest tier whose
// threshold it clears and which still has a free slot; a note whose tier
// is already full falls to the next tier down. Notes that fit no tier,
// including all notes below ThresholdTitle, are omitted.
func AssignTiers(ranked []RankedNote, cfg TierConfig) []TieredNote {
	sorted := make([]RankedNote, len(ranked))
	copy(sorted, ranked)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Relevance != sorted[j].Relevance {
			return sorted[i].Relevance > sorted[j].Relevance
		}
		return sorted[i].Slug < sorted[j].Slug
	})

	var full, summary, title []RankedNote
	for _, n := range sorted {
		switch {
		case n.Relevance >= cfg.ThresholdFull && len(full) < cfg.MaxFull:
			full = append(full, n)
		case n.Relevance >= cfg.ThresholdSummary && len(summary) < cfg.MaxSummary:
			summary = append(summary, n)
		case n.Relevance >= cfg.ThresholdTitle && len(title) < cfg.MaxTitle:
			title = append(title, n)
		}
	}

	out := make([]TieredNote, 0, len(full)+len(summary)+len(title))
	for _, n := range full {
		out = append(out, TieredNote{Slug: n.Slug, Title: n.Title, Tier: TierFull, Body: n.Body, Tags: n.Tags, Outgoing: n.Outgoing})
	}
	for _, n := range summary {
		out = append(out, TieredNote{Slug: n.Slug, Title: n.Title, Tier: TierSummary, Body: n.Summary, Tags: n.Tags, Outgoing: n.Outgoing})
	}
	for _, n := range title {
		out = append(out, TieredNote{Slug: n.Slug, Title: n.Title, Tier: TierTitle, Outgoing: n.Outgoing})
	}
	return out
}
