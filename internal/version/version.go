// Package version reports the tivoctl build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/tivoctl/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/tivoctl/internal/version.Commit=abc1234"
var (
	Version = ""
	Commit  = ""
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	info     Info
	infoOnce sync.Once
)

// Get returns the build information, filling gaps from the embedded VCS
// stamp. Unstamped builds report version "dev" and commit "unknown".
func Get() Info {
	infoOnce.Do(func() {
		info = resolve(Version, Commit, readBuildSettings())
	})
	return info
}

func readBuildSettings() map[string]string {
	settings := make(map[string]string)
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		settings["main.version"] = bi.Main.Version
	}
	return settings
}

func resolve(version, commit string, settings map[string]string) Info {
	if version == "" {
		version = settings["main.version"]
	}
	if version == "" {
		version = "dev"
	}

	if commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			commit = rev
		}
	}
	if commit == "" {
		commit = "unknown"
	}

	return Info{
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the version string including commit
func Full() string {
	i := Get()
	return fmt.Sprintf("%s (commit: %s)", i.Version, i.Commit)
}
