package component

import "context"

// HealthStatus is the coarse state a Component reports about itself.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded means started but not usable yet, such as a cluster
	// still waiting for its brokers.
	StatusDegraded HealthStatus = "degraded"
)

// Health is a point-in-time health report.
type Health struct {
	Name    string       `json:"name" yaml:"name"`
	Status  HealthStatus `json:"status" yaml:"status"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// OK reports whether the component can serve a run.
func (h Health) OK() bool { return h.Status == StatusHealthy }

// Component is something a run starts before it publishes and stops when it
// is done: a broker cluster, a fake, a test driver.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases everything Start acquired. It must be safe to call
	// after a failed Start.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is the one-line summary printed for a component.
type Description struct {
	// Name is a display name such as "Script cluster".
	Name string
	// Type is one of "script", "static", "container" or "inprocess".
	Type string
	// Details is free text, usually the broker list.
	Details string
}

// Describable is implemented by components that can describe their setup.
type Describable interface {
	Describe() Description
}

// Describe returns the self-description of c, or one built from its name
// when c does not implement Describable.
func Describe(c Component) Description {
	var d Description
	if dc, ok := c.(Describable); ok {
		d = dc.Describe()
	}
	if d.Name == "" {
		d.Name = c.Name()
	}
	return d
}
