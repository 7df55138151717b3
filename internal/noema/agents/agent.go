package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/corvid-labs/noema/internal/noema/agents/errno"
	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/promptctx"
	"github.com/corvid-labs/noema/internal/noema/toolloop"
	"github.com/corvid-labs/noema/internal/noema/vault"
	noemajson "github.com/corvid-labs/noema/pkg/json"
)

// Deps are the shared collaborators every stage needs. The same Deps value
// is reused across all five Run calls in a session.
type Deps struct {
	Builder *promptctx.Builder
	Tools   []promptctx.ToolSummary
	Window  promptctx.WindowInfo
	Loop    *toolloop.Loop
	Options llm.CompletionOptions
	Engine  *linkgraph.Engine
	Store   *vault.Store
	// PromptPreamble is prepended to every stage's system prompt. It carries
	// whatever the plugin-contributed prompt pipeline assembled (cluster
	// info, tool announcements, plugin sections) ahead of the stage's own
	// fixed instructions.
	PromptPreamble string
}

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON pulls the JSON payload out of a model answer, preferring a
// fenced ```json block if present and falling back to the raw text.
func extractJSON(answer string) string {
	if m := jsonFence.FindStringSubmatch(answer); m != nil {
		return m[1]
	}
	return strings.TrimSpace(answer)
}

// Run dispatches to the stage named by kind. notes and state feed the
// Context Manager's tiered note block and learner-state section; input
// carries the free-text query plus whatever prior stages produced.
func Run(ctx context.Context, kind Kind, deps Deps, input Input, notes []promptctx.TieredNote, state promptctx.UserState) (Result, error) {
	switch kind {
	case Priestess:
		return runPriestess(ctx, deps, input, notes, state)
	case Hermit:
		return runHermit(ctx, deps, input, notes, state)
	case Magician:
		return runMagician(ctx, deps, input, notes, state)
	case Justice:
		return runJustice(ctx, deps, input, notes, state)
	case Empress:
		return runEmpress(ctx, deps, input)
	default:
		return Result{}, fmt.Errorf("agents: unknown kind %v", kind)
	}
}

func (d Deps) complete(ctx context.Context, staticPrefix, userInput string, notes []promptctx.TieredNote, state promptctx.UserState) (string, error) {
	if d.PromptPreamble != "" {
		staticPrefix = d.PromptPreamble + "\n\n" + staticPrefix
	}
	built := d.Builder.Build(ctx, promptctx.BuildInput{
		StaticPrefix: staticPrefix,
		Tools:        d.Tools,
		Notes:        notes,
		State:        state,
		UserInput:    userInput,
	}, d.Window)

	result, err := d.Loop.Run(ctx, built.Messages, d.Options)
	if err != nil {
		return "", err
	}
	return result.FinalAnswer, nil
}

const priestessPrompt = `You are the High Priestess, the knowledge-assessment stage of a learning pipeline.
Use the keyword_match and neighbors tools to find concepts related to the learner's query.
Decide which related concepts the learner already knows (known_slugs) versus concepts that
are relevant but not yet known (unknown_slugs). Flag any sign of cognitive overload.
Respond with exactly one fenced json code block matching:
{"known_slugs": [...], "unknown_slugs": [...], "cognitive_load_flags": [...], "rationale": "..."}`

func runPriestess(ctx context.Context, deps Deps, input Input, notes []promptctx.TieredNote, state promptctx.UserState) (Result, error) {
	answer, err := deps.complete(ctx, priestessPrompt, input.Query, notes, state)
	if err != nil {
		return Result{}, fmt.Errorf("agents: priestess: %w", err)
	}
	var out PriestessResult
	if err := noemajson.Unmarshal([]byte(extractJSON(answer)), &out); err != nil {
		return Result{}, fmt.Errorf("agents: priestess: %w: %v", errno.ErrResultParse, err)
	}
	return Result{Kind: Priestess, Priestess: &out}, nil
}

const hermitPrompt = `You are the Hermit, the path-planning stage of a learning pipeline.
Use the multi_shortest_paths tool over the union of already-known concepts and the learning
target to propose an ordered sequence of concepts (a learning path) the learner should study.
Respond with exactly one fenced json code block matching:
{"path": ["slug1", "slug2", ...], "rationale": "..."}`

func runHermit(ctx context.Context, deps Deps, input Input, notes []promptctx.TieredNote, state promptctx.UserState) (Result, error) {
	if input.Priestess == nil {
		return Result{}, fmt.Errorf("agents: hermit: %w (missing priestess result)", errno.ErrOutOfOrder)
	}
	answer, err := deps.complete(ctx, hermitPrompt, input.Query, notes, state)
	if err != nil {
		return Result{}, fmt.Errorf("agents: hermit: %w", err)
	}
	var out HermitResult
	if err := noemajson.Unmarshal([]byte(extractJSON(answer)), &out); err != nil {
		return Result{}, fmt.Errorf("agents: hermit: %w: %v", errno.ErrResultParse, err)
	}
	if input.MaxPathLength > 0 && len(out.Path) > input.MaxPathLength {
		return Result{}, fmt.Errorf("agents: hermit: %w (%d > %d)", errno.ErrPathTooLong, len(out.Path), input.MaxPathLength)
	}
	return Result{Kind: Hermit, Hermit: &out}, nil
}

const magicianPrompt = `You are the Magician, the content-generation stage of a learning pipeline.
For each concept in the learning path, write a new markdown passage teaching it. Every passage
must include at least one [[link]] to a concept the learner already knows and one [[link]] to a
path-neighbor concept. Propose a slug, title, and tags for each draft.
Respond with exactly one fenced json code block matching:
{"drafts": [{"slug": "...", "title": "...", "tags": [...], "body": "..."}]}`

func runMagician(ctx context.Context, deps Deps, input Input, notes []promptctx.TieredNote, state promptctx.UserState) (Result, error) {
	if input.Hermit == nil {
		return Result{}, fmt.Errorf("agents: magician: %w (missing hermit result)", errno.ErrOutOfOrder)
	}
	answer, err := deps.complete(ctx, magicianPrompt, input.Query, notes, state)
	if err != nil {
		return Result{}, fmt.Errorf("agents: magician: %w", err)
	}
	var out MagicianResult
	if err := noemajson.Unmarshal([]byte(extractJSON(answer)), &out); err != nil {
		return Result{}, fmt.Errorf("agents: magician: %w: %v", errno.ErrResultParse, err)
	}
	return Result{Kind: Magician, Magician: &out}, nil
}

const justicePrompt = `You are Justice, the comprehension-check stage of a learning pipeline.
Generate three to five questions that require the learner to use the new [[links]] introduced
in the drafted passages. If learner answers are supplied in the conversation, score each
answer from 0 to 1 instead of generating fresh questions.
Respond with exactly one fenced json code block matching:
{"questions": [{"prompt": "...", "target_slug": "...", "learner_answer": "...", "score": 0.0}]}`

func runJustice(ctx context.Context, deps Deps, input Input, notes []promptctx.TieredNote, state promptctx.UserState) (Result, error) {
	if input.Magician == nil {
		return Result{}, fmt.Errorf("agents: justice: %w (missing magician result)", errno.ErrOutOfOrder)
	}
	userInput := input.Query
	if len(input.LearnerAnswers) > 0 {
		userInput = fmt.Sprintf("%s\n\nLearner answers (in question order): %s", userInput, strings.Join(input.LearnerAnswers, " | "))
	}
	answer, err := deps.complete(ctx, justicePrompt, userInput, notes, state)
	if err != nil {
		return Result{}, fmt.Errorf("agents: justice: %w", err)
	}
	var out JusticeResult
	if err := noemajson.Unmarshal([]byte(extractJSON(answer)), &out); err != nil {
		return Result{}, fmt.Errorf("agents: justice: %w: %v", errno.ErrResultParse, err)
	}
	return Result{Kind: Justice, Justice: &out}, nil
}

// runEmpress persists Magician's drafts directly through the Note Store and
// the Link Engine's incremental update path. It makes no LLM call: memory
// consolidation is a mechanical commit of already-generated content.
func runEmpress(ctx context.Context, deps Deps, input Input) (Result, error) {
	if input.Magician == nil {
		return Result{}, fmt.Errorf("agents: empress: %w (missing magician result)", errno.ErrOutOfOrder)
	}

	out := EmpressResult{}
	for _, draft := range input.Magician.Drafts {
		existing, readErr := deps.Store.Read(draft.Slug)
		var oldTargets, oldTags []string
		if readErr == nil {
			oldTargets = existing.OutgoingTargets()
			oldTags = existing.Front.Tags
		}

		note, err := deps.Store.Write(draft.Slug, vault.FrontMatter{Title: draft.Title, Tags: draft.Tags}, draft.Body)
		if err != nil {
			return Result{}, fmt.Errorf("agents: empress: writing %q: %w", draft.Slug, err)
		}

		newTargets := note.OutgoingTargets()
		deps.Engine.Update(draft.Slug, oldTargets, newTargets, oldTags, draft.Tags, note.Title(), len(strings.Fields(note.Body)), func(slug string) bool {
			_, err := deps.Store.Read(slug)
			return err == nil
		})

		if readErr != nil {
			out.CreatedSlugs = append(out.CreatedSlugs, draft.Slug)
		} else {
			out.ModifiedSlugs = append(out.ModifiedSlugs, draft.Slug)
		}
		for _, target := range newTargets {
			out.NewLinks = append(out.NewLinks, fmt.Sprintf("%s -> %s", draft.Slug, target))
		}
	}

	return Result{Kind: Empress, Empress: &out}, nil
}
