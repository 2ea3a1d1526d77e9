// Package version reports the build identity of the soc2 binary.
//
// Release builds inject Version, Commit and Date via -ldflags. Builds
// without ldflags (go install, go build from a checkout) fall back to the
// module version and VCS stamp the Go toolchain embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Placeholders kept when neither ldflags nor build metadata supply a value.
const (
	unsetVersion = "dev"
	unsetCommit  = "none"
	unsetDate    = "unknown"
)

// These variables are overridden by ldflags at release time.
var (
	Version = unsetVersion
	Commit  = unsetCommit
	Date    = unsetDate
)

// BuildInfo is the resolved identity of the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get resolves the build identity. Values set through ldflags always win.
func Get() BuildInfo {
	return resolve(debug.ReadBuildInfo)
}

func resolve(read func() (*debug.BuildInfo, bool)) BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
	bi, ok := read()
	if !ok || bi == nil {
		return info
	}
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if info.Version == unsetVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unsetCommit {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == unsetDate {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders the text printed by soc2 version.
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Modified {
		commit += " (modified)"
	}
	return fmt.Sprintf("soc2 version %s\ncommit: %s\nbuilt: %s\n", b.Version, commit, b.Date)
}

// Info returns the formatted version string printed by soc2 version.
func Info() string {
	return Get().String()
}
