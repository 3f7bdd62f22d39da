package server

import (
	"context"
	"sync"

	"github.com/kbukum/mysqlsvc/component"
)

const componentName = "http-server"

var (
	_ component.Component      = (*ServerComponent)(nil)
	_ component.Describable    = (*ServerComponent)(nil)
	_ component.StatusReporter = (*ServerComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server *Server

	mu    sync.RWMutex
	state component.State
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s, state: component.StateStopped}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start binds and serves.
func (sc *ServerComponent) Start(ctx context.Context) error {
	sc.setState(component.StateStarting)
	if err := sc.server.Start(ctx); err != nil {
		sc.setState(component.StateStopped)
		return err
	}
	sc.setState(component.StateRunning)
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	sc.setState(component.StateStopping)
	if err := sc.server.Stop(ctx); err != nil {
		return err
	}
	sc.setState(component.StateStopped)
	return nil
}

// Health is healthy while the server is listening.
func (sc *ServerComponent) Health(ctx context.Context) component.Health {
	if sc.currentState() == component.StateRunning {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not started",
	}
}

// Status reports the lifecycle state.
func (sc *ServerComponent) Status(ctx context.Context) component.Status {
	return component.Status{Name: componentName, State: sc.currentState()}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.server.Addr() + " (h2c)",
		Port:    sc.server.config.Port,
	}
}

func (sc *ServerComponent) currentState() component.State {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.state
}

func (sc *ServerComponent) setState(s component.State) {
	sc.mu.Lock()
	sc.state = s
	sc.mu.Unlock()
}
