// Package component defines the supervisor contract for lifecycle-managed
// infrastructure services.
//
// Components represent services that require startup, shutdown, health and
// status reporting. They are registered with a Registry (directly or through
// the bootstrap package), which starts them in registration order, stops
// them in reverse order and polls their health at the caller's cadence.
//
// # Interfaces
//
//   - Component: core lifecycle interface (Name/Start/Stop/Health)
//   - StatusReporter: lifecycle state reporting (stopped/starting/running/stopping)
//   - Describable: startup summary descriptions
package component
