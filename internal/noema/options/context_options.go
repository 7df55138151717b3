package options

import "github.com/spf13/pflag"

// ContextOptions configures the Context Manager's tiering, compaction, and
// token-estimation behavior (§4.5, §6 context.*).
type ContextOptions struct {
	// ThresholdFull/ThresholdSummary/ThresholdTitle are the relevance cutoffs
	// a ranked note must clear to enter the corresponding inclusion tier.
	ThresholdFull    float64 `json:"threshold-full" mapstructure:"threshold-full"`
	ThresholdSummary float64 `json:"threshold-summary" mapstructure:"threshold-summary"`
	ThresholdTitle   float64 `json:"threshold-title" mapstructure:"threshold-title"`
	// MaxFull/MaxSummary/MaxTitle cap how many notes each tier may hold once
	// its threshold is cleared.
	MaxFull    int `json:"max-full" mapstructure:"max-full"`
	MaxSummary int `json:"max-summary" mapstructure:"max-summary"`
	MaxTitle   int `json:"max-title" mapstructure:"max-title"`

	// CompactionThreshold is the fraction of the usable window that triggers
	// history compaction. The server wires no Compactor, so this value and
	// KeepRecentTurns are accepted but not read.
	CompactionThreshold float64 `json:"compaction-threshold" mapstructure:"compaction-threshold"`
	// KeepRecentTurns is how many trailing user turns compaction leaves verbatim.
	KeepRecentTurns int `json:"keep-recent-turns" mapstructure:"keep-recent-turns"`
	// ExternalizeBodyChars bounds how large a tiered note's body or a
	// summarized tool result may be before it's written out-of-band and
	// replaced with a reference.
	ExternalizeBodyChars int `json:"externalize-body-chars" mapstructure:"externalize-body-chars"`
	// CharsPerToken is the estimator's character-per-token ratio; <= 0 falls
	// back to the estimator's built-in default.
	CharsPerToken float64 `json:"chars-per-token" mapstructure:"chars-per-token"`
	// DefaultWindowTokens is the usable context window assumed when a
	// model's own window size can't be resolved.
	DefaultWindowTokens int `json:"default-window-tokens" mapstructure:"default-window-tokens"`
}

func NewContextOptions() *ContextOptions {
	return &ContextOptions{
		ThresholdFull:        0.8,
		ThresholdSummary:     0.5,
		ThresholdTitle:       0.2,
		MaxFull:              3,
		MaxSummary:           5,
		MaxTitle:             10,
		CompactionThreshold:  0.8,
		KeepRecentTurns:      3,
		ExternalizeBodyChars: 4000,
		CharsPerToken:        0,
		DefaultWindowTokens:  8192,
	}
}

func (o *ContextOptions) AddFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&o.ThresholdFull, "context.threshold-full", o.ThresholdFull, "Relevance cutoff for the full-body inclusion tier.")
	fs.Float64Var(&o.ThresholdSummary, "context.threshold-summary", o.ThresholdSummary, "Relevance cutoff for the summary inclusion tier.")
	fs.Float64Var(&o.ThresholdTitle, "context.threshold-title", o.ThresholdTitle, "Relevance cutoff for the title-only inclusion tier.")
	fs.IntVar(&o.MaxFull, "context.max-full", o.MaxFull, "Maximum notes held at full-body tier.")
	fs.IntVar(&o.MaxSummary, "context.max-summary", o.MaxSummary, "Maximum notes held at summary tier.")
	fs.IntVar(&o.MaxTitle, "context.max-title", o.MaxTitle, "Maximum notes held at title-only tier.")
	fs.Float64Var(&o.CompactionThreshold, "context.compaction-threshold", o.CompactionThreshold, "Fraction of the usable window that triggers history compaction.")
	fs.IntVar(&o.KeepRecentTurns, "context.keep-recent-turns", o.KeepRecentTurns, "Trailing user turns kept verbatim across compaction.")
	fs.IntVar(&o.ExternalizeBodyChars, "context.externalize-body-chars", o.ExternalizeBodyChars, "Body size, in characters, past which content is externalized to a reference.")
	fs.Float64Var(&o.CharsPerToken, "context.chars-per-token", o.CharsPerToken, "Characters-per-token ratio used by the token estimator; <= 0 uses the built-in default.")
	fs.IntVar(&o.DefaultWindowTokens, "context.default-window-tokens", o.DefaultWindowTokens, "Fallback usable context window when a model's own window can't be resolved.")
}
