package promptctx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// NoteTier controls how much of a note's content enters the assembled
// prompt. Full notes carry their complete body; Summary notes carry their
// front-matter summary and their outgoing links; Title notes contribute
// their title and at most three outgoing links, as a signal that the note
// exists and is linked without spending its token budget.
type NoteTier int

const (
	TierFull NoteTier = iota
	TierSummary
	TierTitle
)

// TieredNote is a single note's contribution to the context backbone.
type TieredNote struct {
	Slug     string
	Title    string
	Tier     NoteTier
	Body     string // full body (TierFull) or summary text (TierSummary); ignored for TierTitle
	Tags     []string
	Outgoing []string // outgoing link targets; rendered in full for TierSummary, truncated to 3 for TierTitle
}

// ToolSummary is a single entry in the deterministic tool catalogue.
type ToolSummary struct {
	Name        string
	Description string
}

// UserState captures the per-turn learner state section.
type UserState struct {
	Goal         string
	MasteryLevel map[string]string // slug -> mastery level label
	RecentSlugs  []string
}

// BuildInput is everything the Builder needs to assemble one turn's prompt.
type BuildInput struct {
	StaticPrefix string
	Tools        []ToolSummary
	Notes        []TieredNote
	State        UserState
	History      []*schema.Message // append-only prior turns, oldest first
	UserInput    string
}

// BuildResult is the assembled, pruned message list ready for the LLM
// Client plus bookkeeping about what pruning/externalization occurred.
type BuildResult struct {
	Messages         []*schema.Message
	EstimatedTokens  int
	PruneSoftTrimmed int
	PruneHardCleared int
	Externalized     []string
}

// Builder assembles the five-section prompt: static prefix, sorted tool
// catalogue, tiered note block, user state, append-only history. Sections
// 1-4 are rebuilt every turn but are pure functions of slowly-changing
// inputs (system prompt, catalogue, linked notes) — callers that put an
// eino cache layer in front of the chat model get a stable prefix for
// KV-cache reuse, since only the history section grows turn over turn.
type Builder struct {
	estimator            *TokenEstimator
	pruner               *Pruner
	externalizeBodyChars int
}

// NewBuilder creates a Builder. externalizeBodyChars bounds how large a
// full-tier note body may be before it is replaced with a read_note
// reference instead of being inlined (0 disables externalization).
func NewBuilder(estimator *TokenEstimator, pruner *Pruner, externalizeBodyChars int) *Builder {
	return &Builder{estimator: estimator, pruner: pruner, externalizeBodyChars: externalizeBodyChars}
}

// Build assembles and prunes the message list for one turn.
func (b *Builder) Build(_ context.Context, input BuildInput, window WindowInfo) BuildResult {
	var messages []*schema.Message
	var externalized []string

	if section := input.StaticPrefix; section != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: section})
	}

	if len(input.Tools) > 0 {
		messages = append(messages, &schema.Message{Role: schema.System, Content: renderToolCatalogue(input.Tools)})
	}

	if len(input.Notes) > 0 {
		noteBlock, ext := b.renderNotes(input.Notes)
		externalized = append(externalized, ext...)
		messages = append(messages, &schema.Message{Role: schema.System, Content: noteBlock})
	}

	if stateBlock := renderUserState(input.State); stateBlock != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: stateBlock})
	}

	messages = append(messages, input.History...)

	if input.UserInput != "" {
		messages = append(messages, &schema.Message{Role: schema.User, Content: input.UserInput})
	}

	pruned := b.pruner.Prune(messages, window.UsableTokens)

	return BuildResult{
		Messages:         pruned.Messages,
		EstimatedTokens:  pruned.EstimatedTokens,
		PruneSoftTrimmed: pruned.SoftTrimmed,
		PruneHardCleared: pruned.HardCleared,
		Externalized:     externalized,
	}
}

func renderToolCatalogue(tools []ToolSummary) string {
	sorted := make([]ToolSummary, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range sorted {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return b.String()
}

func (b *Builder) renderNotes(notes []TieredNote) (string, []string) {
	sorted := make([]TieredNote, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	var out strings.Builder
	var externalized []string
	out.WriteString("Linked notes:\n")
	for _, n := range sorted {
		switch n.Tier {
		case TierFull:
			body := n.Body
			if b.externalizeBodyChars > 0 && len([]rune(body)) > b.externalizeBodyChars {
				externalized = append(externalized, n.Slug)
				fmt.Fprintf(&out, "## %s (%s)\n[note too large to inline, %d chars — call read_note(%q) for the full body]\n\n", n.Title, n.Slug, len([]rune(body)), n.Slug)
				continue
			}
			fmt.Fprintf(&out, "## %s (%s)\n%s\n\n", n.Title, n.Slug, body)
		case TierSummary:
			fmt.Fprintf(&out, "## %s (%s) — summary\n%s\noutgoing: %s\n\n", n.Title, n.Slug, n.Body, strings.Join(n.Outgoing, ", "))
		case TierTitle:
			outgoing := n.Outgoing
			if len(outgoing) > 3 {
				outgoing = outgoing[:3]
			}
			fmt.Fprintf(&out, "- %s (%s) -> %s\n", n.Title, n.Slug, strings.Join(outgoing, ", "))
		}
	}
	return out.String(), externalized
}

func renderUserState(state UserState) string {
	if state.Goal == "" && len(state.MasteryLevel) == 0 && len(state.RecentSlugs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Learner state:\n")
	if state.Goal != "" {
		fmt.Fprintf(&b, "- goal: %s\n", state.Goal)
	}
	if len(state.RecentSlugs) > 0 {
		fmt.Fprintf(&b, "- recently visited: %s\n", strings.Join(state.RecentSlugs, ", "))
	}
	if len(state.MasteryLevel) > 0 {
		slugs := make([]string, 0, len(state.MasteryLevel))
		for slug := range state.MasteryLevel {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		for _, slug := range slugs {
			fmt.Fprintf(&b, "- mastery[%s]: %s\n", slug, state.MasteryLevel[slug])
		}
	}
	return b.String()
}
