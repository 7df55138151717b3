package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// VaultOptions configures the on-disk Obsidian-style knowledge base the
// note store and link engine operate over.
type VaultOptions struct {
	// Root is the vault's root directory. All notes live under it; any
	// resolved path that escapes Root is rejected.
	Root string `json:"root" mapstructure:"root"`
	// Watch is accepted but not read by the server: no vault watcher is
	// started, and files changed on disk outside of noema's own writes
	// reach the link index only at the next startup rebuild.
	Watch bool `json:"watch" mapstructure:"watch"`
	// DailyNotesDir names a subdirectory for daily notes. It is accepted but
	// not read by any component.
	DailyNotesDir string `json:"daily-notes-dir" mapstructure:"daily-notes-dir"`
}

func NewVaultOptions() *VaultOptions {
	return &VaultOptions{
		Root:          "./vault",
		Watch:         true,
		DailyNotesDir: "daily",
	}
}

func (o *VaultOptions) Validate() []error {
	var errs []error
	if o.Root == "" {
		errs = append(errs, fmt.Errorf("vault.root is required"))
	}
	return errs
}

func (o *VaultOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Root, "vault.root", o.Root, "Path to the vault root directory.")
	fs.BoolVar(&o.Watch, "vault.watch", o.Watch, "Accepted but not read: no vault watcher is started.")
	fs.StringVar(&o.DailyNotesDir, "vault.daily-notes-dir", o.DailyNotesDir, "Subdirectory for daily notes.")
}
