// Package version exposes the running binary's version, derived from the
// Go toolchain's embedded VCS build info (Go 1.18+, no -ldflags required).
package version

import (
	"runtime/debug"
	"sync"
)

// Info carries the fields callers render into logs, prompts, and /version
// responses.
type Info struct {
	GitVersion string `json:"git_version"`
	GitCommit  string `json:"git_commit"`
}

var (
	once   sync.Once
	cached Info
)

// Get returns the process-wide version info, computed once from
// debug.ReadBuildInfo().
func Get() Info {
	once.Do(func() {
		cached = resolve()
	})
	return cached
}

func resolve() Info {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{GitVersion: "dev", GitCommit: "dev"}
	}

	commit := "dev"
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if s.Value != "" {
				commit = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	short := commit
	if len(short) > 8 {
		short = short[:8]
	}

	gitVersion := short
	if dirty {
		gitVersion += "-dirty"
	}
	return Info{GitVersion: gitVersion, GitCommit: commit}
}
