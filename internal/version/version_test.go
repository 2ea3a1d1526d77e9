package version

import (
	"runtime/debug"
	"testing"
)

func withVars(t *testing.T, v, commit, date string) {
	t.Helper()
	orig, origC, origD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = orig, origC, origD })
	Version, Commit, Date = v, commit, date
}

func stamped(mainVersion string, settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.25.0",
			Main:      debug.Module{Path: "github.com/pankaj-dahiya-devops/soc2-scanner", Version: mainVersion},
			Settings:  settings,
		}, true
	}
}

func TestResolve_LdflagsWin(t *testing.T) {
	withVars(t, "v1.4.0", "deadbeef", "2026-01-15")

	got := resolve(stamped("v0.0.1", debug.BuildSetting{Key: "vcs.revision", Value: "cafe"}))

	if got.Version != "v1.4.0" || got.Commit != "deadbeef" || got.Date != "2026-01-15" {
		t.Errorf("ldflags values must not be replaced; got %+v", got)
	}
	if got.GoVersion != "go1.25.0" {
		t.Errorf("GoVersion = %q; want go1.25.0", got.GoVersion)
	}
}

func TestResolve_FallsBackToBuildMetadata(t *testing.T) {
	withVars(t, unsetVersion, unsetCommit, unsetDate)

	got := resolve(stamped("v0.3.0",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123abcd"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-02-02T10:00:00Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	))

	want := BuildInfo{Version: "v0.3.0", Commit: "0123abcd", Date: "2026-02-02T10:00:00Z", GoVersion: "go1.25.0", Modified: true}
	if got != want {
		t.Errorf("resolve = %+v; want %+v", got, want)
	}
	if s := got.String(); s != "soc2 version v0.3.0\ncommit: 0123abcd (modified)\nbuilt: 2026-02-02T10:00:00Z\n" {
		t.Errorf("String() = %q", s)
	}
}

func TestResolve_DevelBuildKeepsPlaceholders(t *testing.T) {
	withVars(t, unsetVersion, unsetCommit, unsetDate)

	got := resolve(stamped("(devel)"))
	if got.Version != "dev" || got.Commit != "none" || got.Date != "unknown" {
		t.Errorf("placeholders expected; got %+v", got)
	}

	got = resolve(func() (*debug.BuildInfo, bool) { return nil, false })
	if got.Version != "dev" || got.GoVersion == "" {
		t.Errorf("missing build info must keep placeholders and the runtime Go version; got %+v", got)
	}
}
