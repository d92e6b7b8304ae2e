package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	read := func() (*debug.BuildInfo, bool) { return bi, true }

	tests := []struct {
		name                   string
		version, commit, date  string
		wantV, wantC, wantDate string
	}{
		{"unstamped", "dev", "none", "unknown", "v0.3.1", "abc123", "2026-01-02T03:04:05Z"},
		{"stamped", "v1.0.0", "def456", "2026-02-01", "v1.0.0", "def456", "2026-02-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.commit, tt.date, read)
			if got.Version != tt.wantV || got.Commit != tt.wantC || got.Date != tt.wantDate {
				t.Errorf("resolve() = %+v", got)
			}
			if got.GoVersion == "" {
				t.Error("GoVersion is empty")
			}
		})
	}
}

func TestResolveDevelBuild(t *testing.T) {
	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}
	if got := resolve("dev", "none", "unknown", read); got.Version != "dev" {
		t.Errorf("Version = %q, want dev", got.Version)
	}

	none := func() (*debug.BuildInfo, bool) { return nil, false }
	if got := resolve("dev", "none", "unknown", none); got.Commit != "none" {
		t.Errorf("Commit = %q, want none", got.Commit)
	}
}

func TestString(t *testing.T) {
	i := Get()
	s := String()
	for _, want := range []string{"version: " + i.Version, "commit: " + i.Commit, "built: " + i.Date} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version "+i.Version) {
		t.Errorf("Template() = %q", Template())
	}
}
