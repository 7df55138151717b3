package orchestrator

import (
	"context"

	"github.com/corvid-labs/noema/internal/noema/agents"
	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/promptctx"
	"github.com/corvid-labs/noema/internal/noema/vault"
)

// ContextAssembler builds the per-call note block and learner-state
// section that feeds the Context Manager (C5) for one agent stage's turn.
// Separated from the Orchestrator so a test double can skip the Link
// Engine/Note Store entirely.
type ContextAssembler interface {
	Assemble(ctx context.Context, kind agents.Kind, input agents.Input) ([]promptctx.TieredNote, promptctx.UserState)
}

// VaultAssembler is the production ContextAssembler: it ranks vault notes
// by keyword_match against the session query (seeded further by Priestess's
// known/unknown slugs once available) and tiers them per §4.5.
type VaultAssembler struct {
	Store      *vault.Store
	Engine     *linkgraph.Engine
	TierConfig promptctx.TierConfig
	// CandidateLimit bounds how many keyword_match hits are ranked before
	// tiering. 0 selects a sensible default.
	CandidateLimit int
}

// NewVaultAssembler builds a VaultAssembler with the spec's default tier
// thresholds/sizes.
func NewVaultAssembler(store *vault.Store, engine *linkgraph.Engine) *VaultAssembler {
	return &VaultAssembler{Store: store, Engine: engine, TierConfig: promptctx.DefaultTierConfig(), CandidateLimit: 30}
}

func (a *VaultAssembler) Assemble(_ context.Context, kind agents.Kind, input agents.Input) ([]promptctx.TieredNote, promptctx.UserState) {
	seeds := map[string]struct{}{}
	addSeed := func(slugs []string) {
		for _, s := range slugs {
			seeds[s] = struct{}{}
		}
	}

	query := input.Query
	switch kind {
	case agents.Hermit:
		if input.Priestess != nil {
			addSeed(input.Priestess.KnownSlugs)
			addSeed(input.Priestess.UnknownSlugs)
		}
	case agents.Magician:
		if input.Hermit != nil {
			addSeed(input.Hermit.Path)
		}
	case agents.Justice:
		if input.Magician != nil {
			for _, d := range input.Magician.Drafts {
				seeds[d.Slug] = struct{}{}
			}
		}
	}

	limit := a.CandidateLimit
	if limit <= 0 {
		limit = 30
	}
	matches := a.Engine.KeywordMatch(query, limit)

	maxScore := 0.0
	for _, m := range matches {
		if m.Score > maxScore {
			maxScore = m.Score
		}
	}

	var ranked []promptctx.RankedNote
	seen := map[string]struct{}{}
	addRanked := func(slug string, relevance float64) {
		if _, ok := seen[slug]; ok {
			return
		}
		note, err := a.Store.Read(slug)
		if err != nil {
			return
		}
		seen[slug] = struct{}{}
		ranked = append(ranked, promptctx.RankedNote{
			Slug:      slug,
			Relevance: relevance,
			Title:     note.Title(),
			Body:      note.Body,
			Summary:   note.Front.Summary,
			Tags:      note.Front.Tags,
			Outgoing:  a.Engine.Outgoing(slug),
		})
	}

	for slug := range seeds {
		addRanked(slug, 1.0)
	}
	for _, m := range matches {
		relevance := 1.0
		if maxScore > 0 {
			relevance = m.Score / maxScore
		}
		addRanked(m.Slug, relevance)
	}

	notes := promptctx.AssignTiers(ranked, a.TierConfig)

	state := promptctx.UserState{Goal: input.Query}
	if input.Priestess != nil {
		state.RecentSlugs = append(append([]string{}, input.Priestess.KnownSlugs...), input.Priestess.UnknownSlugs...)
	}
	return notes, state
}
