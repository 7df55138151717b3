package agents

// PriestessResult is the knowledge-assessment stage's output.
type PriestessResult struct {
	KnownSlugs         []string `json:"known_slugs"`
	UnknownSlugs       []string `json:"unknown_slugs"`
	CognitiveLoadFlags []string `json:"cognitive_load_flags"`
	Rationale          string   `json:"rationale"`
}

// HermitResult is the path-planning stage's output.
type HermitResult struct {
	Path      []string `json:"path"`
	Rationale string   `json:"rationale"`
}

// DraftNote is one step of Magician's content generation, not yet committed
// to the vault.
type DraftNote struct {
	Slug  string   `json:"slug"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Body  string   `json:"body"`
}

// MagicianResult is the content-generation stage's output.
type MagicianResult struct {
	Drafts []DraftNote `json:"drafts"`
}

// ComprehensionQuestion is one Justice-generated question, optionally scored
// once the learner answers.
type ComprehensionQuestion struct {
	Prompt        string   `json:"prompt"`
	TargetSlug    string   `json:"target_slug"`
	LearnerAnswer string   `json:"learner_answer,omitempty"`
	Score         *float64 `json:"score,omitempty"`
}

// JusticeResult is the comprehension-check stage's output.
type JusticeResult struct {
	Questions []ComprehensionQuestion `json:"questions"`
}

// EmpressResult is the memory-consolidation stage's output.
type EmpressResult struct {
	CreatedSlugs  []string `json:"created_slugs"`
	ModifiedSlugs []string `json:"modified_slugs"`
	NewLinks      []string `json:"new_links"` // "from -> to" pairs, for display only
}

// Result is the envelope every stage returns. Only the field matching Kind
// is populated.
type Result struct {
	Kind      Kind
	Priestess *PriestessResult
	Hermit    *HermitResult
	Magician  *MagicianResult
	Justice   *JusticeResult
	Empress   *EmpressResult
}

// Input carries one stage's inputs: the free-text query plus every prior
// stage's result it may depend on.
type Input struct {
	Query     string
	Priestess *PriestessResult
	Hermit    *HermitResult
	Magician  *MagicianResult
	Justice   *JusticeResult
	// LearnerAnswers, if set, are matched positionally against Justice's
	// questions for scoring instead of generating fresh ones.
	LearnerAnswers []string
	MaxPathLength  int
}
