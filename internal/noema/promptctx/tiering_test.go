package promptctx

import (
	"fmt"
	"testing"
)

// TestTieredContextDefaults mirrors the spec's scenario 5: 20 notes, 2 at
// relevance >= 0.8, 6 in [0.5, 0.8), and the remaining 12 in [0.2, 0.5).
// With defaults (F=3, S=5, T=10) the render keeps 2 full, 5 summary, 10
// title, in sorted slug order within each tier.
func TestTieredContextDefaults(t *testing.T) {
	var ranked []RankedNote
	for i := 0; i < 2; i++ {
		ranked = append(ranked, RankedNote{Slug: fmt.Sprintf("full-%d", i), Relevance: 0.9})
	}
	for i := 0; i < 6; i++ {
		ranked = append(ranked, RankedNote{Slug: fmt.Sprintf("summary-%d", i), Relevance: 0.6})
	}
	for i := 0; i < 12; i++ {
		ranked = append(ranked, RankedNote{Slug: fmt.Sprintf("title-%d", i), Relevance: 0.3})
	}

	tiers := AssignTiers(ranked, DefaultTierConfig())

	var full, summary, title int
	for _, n := range tiers {
		switch n.Tier {
		case TierFull:
			full++
		case TierSummary:
			summary++
		case TierTitle:
			title++
		}
	}
	if full != 2 || summary != 5 || title != 10 {
		t.Fatalf("got full=%d summary=%d title=%d, want 2/5/10", full, summary, title)
	}
}

func TestAssignTiersDeterministicOrder(t *testing.T) {
	ranked := []RankedNote{
		{Slug: "b", Relevance: 0.9},
		{Slug: "a", Relevance: 0.9},
	}
	cfg := DefaultTierConfig()
	tiers := AssignTiers(ranked, cfg)
	if len(tiers) != 2 || tiers[0].Slug != "a" || tiers[1].Slug != "b" {
		t.Fatalf("expected tie-broken slug order [a b], got %+v", tiers)
	}
}

func TestAssignTiersOmitsBelowTitleThreshold(t *testing.T) {
	ranked := []RankedNote{{Slug: "low", Relevance: 0.1}}
	tiers := AssignTiers(ranked, DefaultTierConfig())
	if len(tiers) != 0 {
		t.Fatalf("expected note below threshold_title to be omitted, got %+v", tiers)
	}
}
