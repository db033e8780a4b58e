package version

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"
)

var (
	// Set at build time with -ldflags "-X github.com/kbukum/roundtrip/version.Version=...".
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// clientModules maps the client libraries the harness can drive to the
// name shown in version output.
var clientModules = map[string]string{
	"github.com/segmentio/kafka-go":     "kafka-go",
	"github.com/twmb/franz-go":          "franz-go",
	"github.com/twmb/franz-go/pkg/kadm": "kadm",
}

// Info is the build description printed by "roundtrip version".
type Info struct {
	Version   string            `json:"version" yaml:"version"`
	GitCommit string            `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GoVersion string            `json:"go_version" yaml:"go_version"`
	BuildDate time.Time         `json:"build_date" yaml:"build_date"`
	Dirty     bool              `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Clients   map[string]string `json:"clients,omitempty" yaml:"clients,omitempty"`
}

// Get returns the version information of the running binary.
func Get() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		Clients:   map[string]string{},
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(info, bi)
	}
	return info
}

func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
				if len(info.GitCommit) > 7 {
					info.GitCommit = info.GitCommit[:7]
				}
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	for _, dep := range bi.Deps {
		m := dep
		if dep.Replace != nil {
			m = dep.Replace
		}
		if name, ok := clientModules[dep.Path]; ok {
			info.Clients[name] = m.Version
		}
	}
}

// Short returns version-commit, with a -dirty suffix for modified trees.
func (i *Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// String renders the version line followed by one line per client library.
func (i *Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "roundtrip %s (%s", i.Short(), i.GoVersion)
	if !i.BuildDate.IsZero() {
		fmt.Fprintf(&b, ", built %s", i.BuildDate.UTC().Format(time.RFC3339))
	}
	b.WriteString(")")

	names := make([]string, 0, len(i.Clients))
	for name := range i.Clients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s %s", name, i.Clients[name])
	}
	return b.String()
}
