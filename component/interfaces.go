package component

import "context"

// ContractVersion identifies the supervisor contract implemented by this
// package: version 2 adds Status reporting to the original
// Name/Start/Stop/Health contract.
const ContractVersion = 2

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Healthy is the boolean view of the health record.
func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

// State is the lifecycle state of a component.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Status holds the lifecycle state of a component.
type Status struct {
	Name  string `json:"name"`
	State State  `json:"state"`
}

// Component represents a lifecycle-managed infrastructure component.
// Each infrastructure module (database, http server, etc.) implements this interface.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	// Implementations must not panic and must not block on Start/Stop.
	Health(ctx context.Context) Health
}

// StatusReporter is optionally implemented by components that expose their
// lifecycle state to the supervisor.
type StatusReporter interface {
	Status(ctx context.Context) Status
}

// Description holds summary information for the startup display.
// Components that implement Describable return this to self-report
// what they are and how they're configured.
type Description struct {
	// Name is the human-readable display name (e.g., "HTTP Server", "MySQL").
	// If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "database", "server", etc.
	Type string
	// Details is a human-readable one-liner shown in the startup summary.
	// Examples: "u@db:3306/app pool=25/5"
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by Components to provide
// startup summary information.
type Describable interface {
	Describe() Description
}
