package version

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		commit      string
		settings    map[string]string
		wantVersion string
		wantCommit  string
	}{
		{
			name:        "ldflags win",
			version:     "v1.0.0",
			commit:      "abc1234",
			settings:    map[string]string{"vcs.revision": "ffffffffffff", "main.version": "v0.9.0"},
			wantVersion: "v1.0.0",
			wantCommit:  "abc1234",
		},
		{
			name:        "vcs stamp",
			settings:    map[string]string{"vcs.revision": "0123456789abcdef", "vcs.modified": "true"},
			wantVersion: "dev",
			wantCommit:  "0123456-dirty",
		},
		{
			name:        "module version",
			settings:    map[string]string{"main.version": "v0.2.1"},
			wantVersion: "v0.2.1",
			wantCommit:  "unknown",
		},
		{
			name:        "nothing known",
			settings:    map[string]string{},
			wantVersion: "dev",
			wantCommit:  "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.commit, tt.settings)
			if got.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", got.Version, tt.wantVersion)
			}
			if got.Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", got.Commit, tt.wantCommit)
			}
			if !strings.Contains(got.Platform, "/") {
				t.Errorf("Platform = %q, want os/arch", got.Platform)
			}
		})
	}
}

func TestFull(t *testing.T) {
	if got := Full(); !strings.Contains(got, "(commit: ") {
		t.Errorf("Full() = %q", got)
	}
}
