// Package buildinfo holds the build metadata of the prfiles binary. The linker
// injects values into cmd/prfiles; main() forwards them with Set.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const shortCommitLen = 12

// Info is the metadata printed by prfiles --version.
type Info struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
	// Dirty reports a binary built from a modified working tree.
	Dirty   bool
}

var current = Info{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
	BuiltBy: "unknown",
}

// Set stores the build metadata received from linker-injected variables.
func Set(version, commit, date, builtBy string) {
	current = Info{Version: version, Commit: commit, Date: date, BuiltBy: builtBy}
}

// Get returns the current build metadata.
func Get() Info { return current }

// Enrich completes placeholder values from the build information recorded in the binary.
func Enrich() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	current = current.enrich(info)
}

// enrich fills placeholders only. A go install'd binary carries its module
// version; a local build carries the VCS stamp.
func (i Info) enrich(info *debug.BuildInfo) Info {
	if i.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		i.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if i.Commit == "none" {
				i.Commit = setting.Value
			}
		case "vcs.time":
			if i.Date == "unknown" {
				i.Date = setting.Value
			}
		case "vcs.modified":
			i.Dirty = setting.Value == "true"
		}
	}
	if i.BuiltBy == "unknown" && info.GoVersion != "" {
		i.BuiltBy = info.GoVersion
	}
	return i
}

// String renders the metadata on one line for --version.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > shortCommitLen {
		commit = commit[:shortCommitLen]
	}
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit %s, built %s by %s)", i.Version, commit, i.Date, i.BuiltBy)
}

// String renders the current metadata.
func String() string { return current.String() }
