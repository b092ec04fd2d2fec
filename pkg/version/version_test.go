package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version = "1.2.3"
	Commit = "abcdefg"

	info := Get()
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", info.Version, "1.2.3")
	}
	if info.GitCommit != "abcdefg" {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, "abcdefg")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.0.0", GitCommit: "abc", BuildTime: "now", GoVersion: "go1.23", Platform: "linux/amd64"}
	got := info.String()
	want := "reduce-file-sizes version 1.0.0 (commit: abc) built at now with go1.23 on linux/amd64"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, AppName) {
		t.Errorf("String() should start with %q", AppName)
	}
}

func TestWithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2025-07-10T15:04:05Z"},
		},
	}

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "defaults are filled",
			in:   Info{Version: "dev", GitCommit: "none", BuildTime: "unknown"},
			want: Info{Version: "1.4.0", GitCommit: "0123456", BuildTime: "2025-07-10T15:04:05Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "2.0.0", GitCommit: "abcdefg", BuildTime: "now"},
			want: Info{Version: "2.0.0", GitCommit: "abcdefg", BuildTime: "now"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withBuildInfo(bi); got != tt.want {
				t.Errorf("withBuildInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}

	devel := Info{Version: "dev"}.withBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if devel.Version != "dev" {
		t.Errorf("Version = %q, want dev for a (devel) build", devel.Version)
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := (Info{Version: "1.0.0"}).UserAgent(), "reduce-file-sizes/1.0.0"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
