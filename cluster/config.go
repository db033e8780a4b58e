package cluster

import (
	"time"

	"github.com/kbukum/roundtrip/validation"
)

// Cluster modes.
const (
	ModeScript    = "script"
	ModeStatic    = "static"
	ModeContainer = "container"
)

// Config selects and configures the cluster a run waits for.
type Config struct {
	Mode      string          `yaml:"mode" mapstructure:"mode" validate:"oneof=script static container"`
	Script    ScriptConfig    `yaml:"script" mapstructure:"script"`
	Container ContainerConfig `yaml:"container" mapstructure:"container"`
}

// ScriptConfig describes the shell entry point that provisions the brokers.
type ScriptConfig struct {
	// Path is the script sourced before calling WaitFunc.
	Path string `yaml:"path" mapstructure:"path"`
	// WaitFunc is the shell function that blocks until the brokers are up.
	WaitFunc string `yaml:"wait_func" mapstructure:"wait_func"`
	// StopFunc, when set, is called on Stop to tear the brokers down.
	StopFunc string `yaml:"stop_func" mapstructure:"stop_func"`
	// Dir is the working directory of the script.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Env is appended to the inherited environment.
	Env []string `yaml:"env" mapstructure:"env"`
	// GracePeriod is the time between SIGTERM and SIGKILL on cancellation.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// TailLines is how many output lines are kept for error reports.
	TailLines int `yaml:"tail_lines" mapstructure:"tail_lines" validate:"gte=0"`
	// Probe dials the configured brokers after the script succeeds.
	Probe bool `yaml:"probe" mapstructure:"probe"`
}

// ContainerConfig describes a single-broker testcontainers cluster.
type ContainerConfig struct {
	Image     string `yaml:"image" mapstructure:"image"`
	ClusterID string `yaml:"cluster_id" mapstructure:"cluster_id"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeScript
	}
	if c.Script.Path == "" {
		c.Script.Path = "streaming/start-brokers.sh"
	}
	if c.Script.WaitFunc == "" {
		c.Script.WaitFunc = "wait_for_zookeeper_and_kafka"
	}
	if c.Script.GracePeriod <= 0 {
		c.Script.GracePeriod = 10 * time.Second
	}
	if c.Script.TailLines == 0 {
		c.Script.TailLines = 50
	}
	if c.Container.Image == "" {
		c.Container.Image = "confluentinc/confluent-local:7.8.0"
	}
	if c.Container.ClusterID == "" {
		c.Container.ClusterID = "roundtrip"
	}
}

// Validate checks the selected mode has what it needs.
func (c *Config) Validate() error {
	v := validation.New().Merge("cluster", validation.Validate(c))
	if c.Mode == ModeScript {
		v.Required("script.path", c.Script.Path)
		v.Required("script.wait_func", c.Script.WaitFunc)
	}
	if c.Mode == ModeContainer {
		v.Required("container.image", c.Container.Image)
	}
	return v.Validate()
}
