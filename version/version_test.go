package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() {
		Version, GitCommit, BuildTime = v, c, b
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.Clients == nil {
		t.Error("expected non-nil clients map")
	}
}

func TestGetWithLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abc1234", "2026-01-15T10:30:00Z"

	info := Get()
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit 'abc1234', got %q", info.GitCommit)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildDate.Year())
	}
}

func TestFromBuildInfo(t *testing.T) {
	info := &Info{Version: "1.0.0", Clients: map[string]string{}}
	fromBuildInfo(info, &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-01T00:00:00Z"},
		},
		Deps: []*debug.Module{
			{Path: "github.com/segmentio/kafka-go", Version: "v0.4.50"},
			{Path: "github.com/twmb/franz-go", Version: "v1.20.5", Replace: &debug.Module{Version: "v1.20.6"}},
			{Path: "github.com/rs/zerolog", Version: "v1.34.0"},
		},
	})

	if info.GitCommit != "0123456" {
		t.Errorf("expected truncated commit, got %q", info.GitCommit)
	}
	if !info.Dirty {
		t.Error("expected dirty build")
	}
	if !info.BuildDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected build date %v", info.BuildDate)
	}
	if info.Clients["kafka-go"] != "v0.4.50" || info.Clients["franz-go"] != "v1.20.6" {
		t.Errorf("unexpected clients %v", info.Clients)
	}
	if _, ok := info.Clients["zerolog"]; ok {
		t.Error("non-client modules must not be listed")
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short() = %q, want %q", got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GoVersion: "go1.26.0",
		BuildDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Clients:   map[string]string{"kafka-go": "v0.4.50", "franz-go": "v1.20.5"},
	}
	s := info.String()
	lines := strings.Split(s, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", s)
	}
	if !strings.Contains(lines[0], "built 2026-01-02T03:04:05Z") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.TrimSpace(lines[1]) != "franz-go v1.20.5" {
		t.Errorf("expected clients sorted by name, got %q", lines[1])
	}
}
