package options

import "github.com/spf13/pflag"

// LinkOptions configures the Link Engine's graph analytics (§4.3, §6 links.*).
type LinkOptions struct {
	// DensityK is the normalizing constant K in the per-note density metric
	// ((outgoing + incoming) / K, capped at 1).
	DensityK int `json:"density-k" mapstructure:"density-k"`
}

func NewLinkOptions() *LinkOptions {
	return &LinkOptions{DensityK: 10}
}

func (o *LinkOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.DensityK, "links.density-k", o.DensityK, "Normalizing constant K used by the per-note density metric.")
}
