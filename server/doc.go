// Package server provides the HTTP surface of a service: a Gin engine served
// over h2c, wrapped in server-level middleware and managed as a component.
//
// RegisterDefaultEndpoints wires the component registry to:
//
//   - /health: aggregated health, 503 when any component is unhealthy
//   - /ready: 503 until every component is running and not unhealthy
//   - /alive: process liveness
//   - /status, /status/:name: lifecycle state joined with health
//   - /info, /version: build and contract version
//   - /metrics: runtime stats plus caller-supplied sections such as pool stats
package server
