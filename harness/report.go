package harness

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/payload"
)

// Report is the record of one run, written with --report.
type Report struct {
	RunID     string               `json:"run_id" yaml:"run_id"`
	Passed    bool                 `json:"passed" yaml:"passed"`
	Topic     string               `json:"topic" yaml:"topic"`
	Client    string               `json:"client,omitempty" yaml:"client,omitempty"`
	Cluster   ClusterReport        `json:"cluster" yaml:"cluster"`
	Message   payload.Summary      `json:"message" yaml:"message"`
	Publish   *kafka.PublishReport `json:"publish,omitempty" yaml:"publish,omitempty"`
	Results   []ConsumptionResult  `json:"results" yaml:"results"`
	StartedAt time.Time            `json:"started_at" yaml:"started_at"`
	Duration  time.Duration        `json:"duration" yaml:"duration"`
}

// ClusterReport describes the cluster a run used.
type ClusterReport struct {
	Name    string         `json:"name" yaml:"name"`
	State   string         `json:"state" yaml:"state"`
	Brokers []string       `json:"brokers" yaml:"brokers"`
	Members []kafka.Broker `json:"members,omitempty" yaml:"members,omitempty"`
}

// Failed returns the passes that did not match.
func (r *Report) Failed() []ConsumptionResult {
	var out []ConsumptionResult
	for _, res := range r.Results {
		if !res.Matched {
			out = append(out, res)
		}
	}
	return out
}

// Encode writes r as YAML.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes r as YAML to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReport loads a report written by WriteFile.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
