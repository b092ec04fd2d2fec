// Package version provides build information for the reduce-file-sizes hooks.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// These variables are populated at build time using -ldflags.
// Example:
// go build -ldflags "-X 'github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version.Version=1.0.0' -X 'github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version.Commit=abcdefg' -X 'github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version.BuildTime=2025-07-10T15:04:05Z'"
//
// Values left unset fall back to what the go command embeds in the binary,
// so `go install ...@v1.0.0` still reports its module version.
var (
	Version   = "dev"     // Semantic version of the application
	Commit    = "none"    // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// AppName is the name reported in logs, version output and the Tinify user agent.
const AppName = "reduce-file-sizes"

// Info contains comprehensive version information.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string // OS and architecture
}

// Get returns the current version information.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withBuildInfo(bi)
	}
	return info
}

// withBuildInfo fills the fields still at their defaults from embedded module
// and VCS data. Values set with -ldflags always win.
func (i Info) withBuildInfo(bi *debug.BuildInfo) Info {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "none" && s.Value != "" {
				i.GitCommit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if i.BuildTime == "unknown" && s.Value != "" {
				i.BuildTime = s.Value
			}
		}
	}
	return i
}

// UserAgent identifies the hooks to the compression service.
func (i Info) UserAgent() string {
	return AppName + "/" + i.Version
}

// String returns the version information on a single line, e.g.
// reduce-file-sizes version 1.0.0 (commit: abcdefg) built at 2025-07-10T15:04:05Z with go1.23.1 on windows/amd64
func (i Info) String() string {
	return fmt.Sprintf(
		"%s version %s (commit: %s) built at %s with %s on %s",
		AppName,
		i.Version,
		i.GitCommit,
		i.BuildTime,
		i.GoVersion,
		i.Platform,
	)
}
