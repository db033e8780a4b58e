package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/roundtrip/component"
)

// ClusterInfo is the cluster line of the summary.
type ClusterInfo struct {
	Name    string
	Type    string
	State   string
	Details string
	Healthy bool
}

// PassInfo is one verification pass.
type PassInfo struct {
	Group   string
	State   string
	Records int
	Detail  string
	OK      bool
}

// StepInfo is a timed step such as publishing.
type StepInfo struct {
	Name     string
	Status   string
	Details  string
	Duration time.Duration
	OK       bool
}

// Summary collects what a run did and prints it when the run ends.
type Summary struct {
	serviceName string
	version     string
	duration    time.Duration
	err         error
	clusters    []ClusterInfo
	steps       []StepInfo
	passes      []PassInfo
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetDuration records the total run time.
func (s *Summary) SetDuration(d time.Duration) { s.duration = d }

// SetResult records the run outcome.
func (s *Summary) SetResult(err error) { s.err = err }

// TrackCluster records a cluster from its self-description.
func (s *Summary) TrackCluster(name string, desc component.Description, state string, healthy bool) {
	if desc.Name != "" {
		name = desc.Name
	}
	s.clusters = append(s.clusters, ClusterInfo{
		Name:    name,
		Type:    desc.Type,
		State:   state,
		Details: desc.Details,
		Healthy: healthy,
	})
}

// TrackStep records a timed step.
func (s *Summary) TrackStep(name, status, details string, d time.Duration, ok bool) {
	s.steps = append(s.steps, StepInfo{Name: name, Status: status, Details: details, Duration: d, OK: ok})
}

// TrackPass records a verification pass.
func (s *Summary) TrackPass(group, state string, records int, detail string, ok bool) {
	s.passes = append(s.passes, PassInfo{Group: group, State: state, Records: records, Detail: detail, OK: ok})
}

// Display writes the summary to w.
func (s *Summary) Display(w io.Writer) {
	verdict := "✅ PASSED"
	if s.err != nil {
		verdict = "❌ FAILED"
	}
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s v%s in %.2fs\n\n", verdict, s.serviceName, version, s.duration.Seconds())

	if len(s.clusters) > 0 {
		fmt.Fprintf(w, "📊 Cluster\n")
		for i, c := range s.clusters {
			details := c.Details
			if c.Type != "" {
				details = c.Type + " " + details
			}
			fmt.Fprintf(w, "   %s %s %s [%s] %s\n", branch(i, len(s.clusters)), icon(c.Healthy), c.Name, c.State, details)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(s.steps) > 0 {
		fmt.Fprintf(w, "📨 Steps\n")
		for i, st := range s.steps {
			fmt.Fprintf(w, "   %s %s %s (%s, %s) %s\n", branch(i, len(s.steps)), icon(st.OK), st.Name, st.Status,
				st.Duration.Round(time.Millisecond), st.Details)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(s.passes) > 0 {
		ok := 0
		fmt.Fprintf(w, "🔁 Consumer groups\n")
		for i, p := range s.passes {
			line := fmt.Sprintf("   %s %s %s: %s, %d record(s)", branch(i, len(s.passes)), icon(p.OK), p.Group, p.State, p.Records)
			if p.Detail != "" {
				line += " | " + p.Detail
			}
			fmt.Fprintln(w, line)
			if p.OK {
				ok++
			}
		}
		fmt.Fprintf(w, "\n   %d/%d groups matched\n", ok, len(s.passes))
	}

	if s.err != nil {
		fmt.Fprintf(w, "\n%v\n", s.err)
	}
	fmt.Fprintf(w, "\n")
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func icon(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
