package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/mysqlsvc/component"
)

// InfrastructureInfo holds what a Describable component reports about itself.
type InfrastructureInfo struct {
	Name    string
	Type    string // e.g. "database", "server"
	Details string
	Port    int
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure entry. Describable components
// are collected automatically; this is for anything outside the registry.
func (s *Summary) TrackInfrastructure(name, componentType, details string, port int) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Details: details,
		Port:    port,
	})
}

// collect merges Describable components with manually tracked entries.
func (s *Summary) collect(registry *component.Registry) []InfrastructureInfo {
	infra := make([]InfrastructureInfo, 0, len(s.infrastructure))
	if registry != nil {
		for _, c := range registry.All() {
			d, ok := c.(component.Describable)
			if !ok {
				continue
			}
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = c.Name()
			}
			infra = append(infra, InfrastructureInfo{
				Name:    name,
				Type:    desc.Type,
				Details: desc.Details,
				Port:    desc.Port,
			})
		}
	}
	return append(infra, s.infrastructure...)
}

// DisplaySummary writes the bootstrap summary including live state and
// health from the registry.
func (s *Summary) DisplaySummary(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	infra := s.collect(registry)
	if len(infra) > 0 {
		fmt.Fprintf(w, "📊 Infrastructure\n")
		for i, inf := range infra {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", treePrefix(i, len(infra)), inf.Name, inf.Type, details)
		}
		fmt.Fprintf(w, "\n")
	}

	if registry == nil {
		return
	}

	statuses := registry.StatusAll(ctx)
	if len(statuses) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	health := make(map[string]component.Health, len(statuses))
	for _, h := range registry.HealthAll(ctx) {
		health[h.Name] = h
	}

	fmt.Fprintf(w, "📦 Components\n")
	healthy := 0
	for i, st := range statuses {
		h := health[st.Name]
		msg := ""
		if h.Message != "" {
			msg = " - " + h.Message
		}
		fmt.Fprintf(w, "   %s %s %s (%s, %s)%s\n", treePrefix(i, len(statuses)),
			healthStatusIcon(h.Status), st.Name, st.State, strings.ToLower(string(h.Status)), msg)
		if h.Healthy() {
			healthy++
		}
	}
	fmt.Fprintf(w, "\n")

	if total := len(statuses); healthy == total {
		fmt.Fprintf(w, "✅ All components healthy (%d/%d)\n\n", healthy, total)
	} else {
		fmt.Fprintf(w, "⚠️  Some components have issues (%d/%d healthy)\n\n", healthy, total)
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
