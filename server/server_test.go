package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mysqlsvc/component"
	"github.com/kbukum/mysqlsvc/logger"
	"github.com/kbukum/mysqlsvc/server/endpoint"
	"github.com/kbukum/mysqlsvc/server/middleware"
)

type stubComponent struct {
	name   string
	health component.HealthStatus
}

func (s *stubComponent) Name() string                { return s.name }
func (s *stubComponent) Start(context.Context) error { return nil }
func (s *stubComponent) Stop(context.Context) error  { return nil }
func (s *stubComponent) Health(context.Context) component.Health {
	return component.Health{Name: s.name, Status: s.health}
}

func testConfig() Config {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	return cfg
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.ReadTimeout != 15 || cfg.ShutdownTimeout != 5 {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected port validation error")
	}
}

func TestDefaultEndpointsThroughHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := component.NewRegistry()
	registry.Register(&stubComponent{name: "mysql", health: component.StatusUnhealthy})
	if err := registry.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	srv := New(testConfig(), logger.NewNop())
	srv.ApplyDefaults("svc", registry, endpoint.MetricsSource{
		Name:    "mysql",
		Collect: func(context.Context) (any, error) { return map[string]int{"open_connections": 1}, nil },
	})
	h := srv.Handler()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusServiceUnavailable},
		{"/ready", http.StatusServiceUnavailable},
		{"/alive", http.StatusOK},
		{"/info", http.StatusOK},
		{"/version", http.StatusOK},
		{"/status", http.StatusOK},
		{"/status/mysql", http.StatusOK},
		{"/status/redis", http.StatusNotFound},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			if rr.Code != tt.want {
				t.Errorf("GET %s = %d, want %d: %s", tt.path, rr.Code, tt.want, rr.Body.String())
			}
			if rr.Header().Get(middleware.HeaderRequestID) == "" {
				t.Error("expected request id header from middleware")
			}
		})
	}
}

func TestComponentLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := New(testConfig(), logger.NewNop())
	srv.GinEngine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	sc := NewComponent(srv)
	ctx := context.Background()

	if h := sc.Health(ctx); h.Healthy() || h.Message != "HTTP server not started" {
		t.Errorf("Health() before start = %+v", h)
	}
	if st := sc.Status(ctx); st.State != component.StateStopped {
		t.Errorf("Status() before start = %+v", st)
	}

	if err := sc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st := sc.Status(ctx); st.State != component.StateRunning {
		t.Errorf("Status() after start = %+v", st)
	}
	if !sc.Health(ctx).Healthy() {
		t.Error("expected healthy while running")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}

	if d := sc.Describe(); d.Type != "server" || d.Name != "HTTP Server" {
		t.Errorf("Describe() = %+v", d)
	}

	if err := sc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if st := sc.Status(ctx); st.State != component.StateStopped {
		t.Errorf("Status() after stop = %+v", st)
	}
}

func TestStartBindFailure(t *testing.T) {
	first := New(testConfig(), logger.NewNop())
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop(context.Background())

	cfg := testConfig()
	cfg.Port = portOf(t, first.Addr())
	sc := NewComponent(New(cfg, logger.NewNop()))
	if err := sc.Start(context.Background()); err == nil {
		t.Fatal("expected bind error on a taken port")
	}
	if st := sc.Status(context.Background()); st.State != component.StateStopped {
		t.Errorf("state after failed start = %s", st.State)
	}
}

func TestHealthEndpointJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := component.NewRegistry()
	registry.Register(&stubComponent{name: "mysql", health: component.StatusHealthy})

	srv := New(testConfig(), logger.NewNop())
	srv.RegisterDefaultEndpoints("svc", registry)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var body struct {
		Status     string             `json:"status"`
		Components []component.Health `json:"components"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || len(body.Components) != 1 || body.Components[0].Name != "mysql" {
		t.Errorf("body = %+v", body)
	}
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %q: %v", portStr, err)
	}
	return port
}
