package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/mysqlsvc/component"
	"github.com/kbukum/mysqlsvc/config"
	"github.com/kbukum/mysqlsvc/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error

	mu      sync.Mutex
	health  component.Health
	started bool
	stopped bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}
func (m *mockComponent) setHealth(status component.HealthStatus, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = component.Health{Name: m.name, Status: status, Message: msg}
}
func (m *mockComponent) wasStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
func (m *mockComponent) wasStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// describedComponent adds Describable and StatusReporter.
type describedComponent struct {
	*mockComponent
	state component.State
}

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "MySQL", Type: "database", Details: "app@db:3306/app", Port: 3306}
}
func (d *describedComponent) Status(ctx context.Context) component.Status {
	return component.Status{Name: d.name, State: d.state}
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

// newTestApp builds an app with a silent logger and summary.
func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryOutput(io.Discard)}, opts...)
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Components == nil {
		t.Error("expected non-nil components registry")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Cfg.Name != "test-svc" {
		t.Errorf("expected cfg.Name 'test-svc', got %q", app.Cfg.Name)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
	if app.monitor != nil {
		t.Error("monitor should be off unless configured")
	}
	if logger.Get("test-svc") != app.Logger {
		t.Error("app logger should be registered under the service name")
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppWithOptions(t *testing.T) {
	app := newTestApp(t,
		WithGracefulTimeout(30*time.Second),
		WithMonitor(MonitorConfig{Enabled: true, Interval: "1s"}),
	)
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if app.monitor == nil || app.monitor.interval != time.Second {
		t.Errorf("expected monitor with 1s interval, got %+v", app.monitor)
	}
}

func TestNewAppRejectsBadMonitorInterval(t *testing.T) {
	_, err := NewApp(newTestConfig("svc", "1"),
		WithLogger(logger.NewNop()),
		WithMonitor(MonitorConfig{Enabled: true, Interval: "soon"}),
	)
	if err == nil {
		t.Fatal("expected monitor validation error")
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("db")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := app.RegisterComponent(healthy("db")); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestHooksRunInOrderAndStopOnError(t *testing.T) {
	var order []string
	hooks := []Hook{
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { return fmt.Errorf("fail") },
		func(ctx context.Context) error { order = append(order, "third"); return nil },
	}
	err := runHooks(context.Background(), hooks)
	if err == nil || !strings.Contains(err.Error(), "hook 1 failed") {
		t.Fatalf("expected hook 1 failure, got %v", err)
	}
	if len(order) != 1 || order[0] != "first" {
		t.Errorf("expected [first], got %v", order)
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		wantErr bool
	}{
		{"healthy", component.StatusHealthy, false},
		{"unhealthy", component.StatusUnhealthy, true},
		{"degraded", component.StatusDegraded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			c := healthy("mysql")
			c.setHealth(tt.status, "detail")
			app.RegisterComponent(c)

			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "mysql="+string(tt.status)+"(detail)") {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestReadyCheckEmpty(t *testing.T) {
	if err := newTestApp(t).ReadyCheck(context.Background()); err != nil {
		t.Errorf("empty registry should be ready, got %v", err)
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("db")
	app.RegisterComponent(comp)

	var order []string
	app.OnStart(func(ctx context.Context) error { order = append(order, "start"); return nil })
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(ctx context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, order)
	}
	if !comp.wasStarted() || !comp.wasStopped() {
		t.Error("expected component to be started and stopped")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected 'task error', got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunTaskComponentStartErrorRollsBack(t *testing.T) {
	app := newTestApp(t)
	first := healthy("first")
	second := &mockComponent{name: "mysql", startErr: fmt.Errorf("connection refused")}
	app.RegisterComponent(first)
	app.RegisterComponent(second)

	taskRan := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		taskRan = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected start error, got %v", err)
	}
	if taskRan {
		t.Error("task must not run after a failed start")
	}
	if !first.wasStopped() {
		t.Error("components started before the failure should be stopped")
	}
	if second.wasStopped() {
		t.Error("the failed component was never started and must not be stopped")
	}
}

func TestRunTaskHookErrorsStopComponents(t *testing.T) {
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
		want  string
	}{
		{
			name: "onStart",
			setup: func(app *App[*testConfig]) {
				app.OnStart(func(ctx context.Context) error { return fmt.Errorf("boom") })
			},
			want: "onStart hook failed",
		},
		{
			name: "configure",
			setup: func(app *App[*testConfig]) {
				app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error { return fmt.Errorf("boom") })
			},
			want: "configuration failed",
		},
		{
			name: "onReady",
			setup: func(app *App[*testConfig]) {
				app.OnReady(func(ctx context.Context) error { return fmt.Errorf("boom") })
			},
			want: "onReady hook failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			comp := healthy("db")
			app.RegisterComponent(comp)
			tt.setup(app)

			err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
			if !comp.wasStopped() {
				t.Error("expected component to be stopped after startup failure")
			}
		})
	}
}

func TestRunTaskStopErrorSurfaces(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("mysql")
	comp.stopErr = fmt.Errorf("close failed")
	app.RegisterComponent(comp)

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestRunTaskOnStopHookError(t *testing.T) {
	app := newTestApp(t)
	app.OnStop(func(ctx context.Context) error { return fmt.Errorf("flush failed") })

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("expected stop hook error, got %v", err)
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("db")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !comp.wasStopped() {
		t.Error("expected component to be stopped")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal on cancel, got %v", sig)
	}
}

func TestShutdownIsRepeatable(t *testing.T) {
	app := newTestApp(t)
	app.RegisterComponent(healthy("db"))
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown after RunTask failed: %v", err)
	}
}

func TestSummaryDisplay(t *testing.T) {
	registry := component.NewRegistry()
	db := &describedComponent{mockComponent: healthy("mysql"), state: component.StateRunning}
	cache := healthy("cache")
	cache.setHealth(component.StatusUnhealthy, "down")
	registry.Register(db)
	registry.Register(cache)

	s := NewSummary("svc", "1.2.3")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.TrackInfrastructure("Metrics", "otel", "localhost:4318", 0)

	var buf bytes.Buffer
	s.DisplaySummary(context.Background(), &buf, registry)
	out := buf.String()

	for _, want := range []string{
		"svc v1.2.3 started in 1.50s",
		"MySQL [database]: app@db:3306/app (:3306)",
		"Metrics [otel]: localhost:4318",
		"mysql (running, healthy)",
		"cache (stopped, unhealthy) - down",
		"Some components have issues (1/2 healthy)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryDisplayEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSummary("svc", "1").DisplaySummary(context.Background(), &buf, component.NewRegistry())
	if !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("unexpected summary: %s", buf.String())
	}

	buf.Reset()
	NewSummary("svc", "1").DisplaySummary(context.Background(), &buf, nil)
	if !strings.Contains(buf.String(), "svc v1") {
		t.Errorf("nil registry should still print the header: %s", buf.String())
	}
}

func TestRunWritesSummary(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, WithSummaryOutput(&buf))
	app.RegisterComponent(healthy("db"))

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if !strings.Contains(buf.String(), "All components healthy (1/1)") {
		t.Errorf("expected summary output, got %q", buf.String())
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := map[component.HealthStatus]string{
		component.StatusHealthy:   "✅",
		component.StatusDegraded:  "⚠️",
		component.StatusUnhealthy: "❌",
		"unknown":                 "❓",
	}
	for status, want := range tests {
		if got := healthStatusIcon(status); got != want {
			t.Errorf("healthStatusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}
