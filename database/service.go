package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/mysqlsvc/component"
	apperrors "github.com/kbukum/mysqlsvc/errors"
	"github.com/kbukum/mysqlsvc/logger"
	"github.com/kbukum/mysqlsvc/observability"
)

// DefaultName is the component name reported by a Service.
const DefaultName = "mysql"

// Service owns one MySQL connection pool and drives it through the
// stopped, starting, running and stopping states.
//
// Start and Stop are serialised. Health, Status, Instance and DB never wait
// for them, so a supervisor can poll while a Stop is blocked on release.
type Service struct {
	name    string
	cfg     Config
	log     *logger.Logger
	factory Factory
	inst    *observability.Instruments

	lifecycleMu sync.Mutex

	mu    sync.RWMutex
	state component.State
	pool  Pool
}

var (
	_ component.Component      = (*Service)(nil)
	_ component.StatusReporter = (*Service)(nil)
	_ component.Describable    = (*Service)(nil)
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFactory replaces the pool factory. The default is MySQLFactory.
func WithFactory(f Factory) ServiceOption {
	return func(s *Service) { s.factory = f }
}

// WithName overrides the component name.
func WithName(name string) ServiceOption {
	return func(s *Service) { s.name = name }
}

// WithInstruments sets the tracing and metric instruments.
func WithInstruments(inst *observability.Instruments) ServiceOption {
	return func(s *Service) { s.inst = inst }
}

// NewService creates a stopped service. cfg is copied; later changes to
// the caller's value have no effect.
func NewService(cfg Config, log *logger.Logger, opts ...ServiceOption) *Service {
	cfg = cfg.clone()
	cfg.ApplyDefaults()

	s := &Service{
		name:    DefaultName,
		cfg:     cfg,
		factory: MySQLFactory,
		state:   component.StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	if log == nil {
		log = logger.NewNop()
	}
	s.log = log.WithComponent(s.name)
	if s.inst == nil {
		s.inst = observability.DefaultInstruments()
	}
	return s
}

// Name returns the component name.
func (s *Service) Name() string { return s.name }

// Start constructs the pool and probes it once. A failed probe is logged
// and leaves the service running unless FailOnProbeError is set.
func (s *Service) Start(ctx context.Context) (err error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	ctx, span := s.inst.StartSpan(ctx, s.name, s.name+".start")
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	if state := s.currentState(); state != component.StateStopped {
		return apperrors.Conflict(fmt.Sprintf("%s is %s", s.name, state)).
			WithDetail("component", s.name).
			WithDetail("state", string(state))
	}

	s.setState(ctx, component.StateStarting)
	s.log.WithContext(ctx).Info("Connecting to MySQL "+s.cfg.Redacted(), map[string]interface{}{
		"host":     s.cfg.Host,
		"port":     s.cfg.Port,
		"user":     s.cfg.User,
		"database": s.cfg.Database,
	})

	pool, err := s.factory(s.cfg, s.log)
	if err == nil && pool == nil {
		err = apperrors.Internal(fmt.Errorf("%s factory returned no pool", s.name))
	}
	if err != nil {
		s.setState(ctx, component.StateStopped)
		s.log.WithContext(ctx).Error("Failed to create connection pool", logger.ErrorFields("start", err))
		return FromDatabase(err).WithDetail("component", s.name)
	}
	s.setPool(pool)

	if probeErr := s.probe(ctx, pool); probeErr != nil {
		if s.cfg.FailOnProbeError {
			return s.abortStart(ctx, pool, probeErr)
		}
		s.log.WithContext(ctx).Warn("Startup probe failed, pool kept", logger.ErrorFields("probe", probeErr))
	}

	s.setState(ctx, component.StateRunning)
	s.log.WithContext(ctx).Debug("Connection pool ready", map[string]interface{}{
		"pool_id": pool.ID().String(),
	})
	return nil
}

// abortStart releases a pool whose startup probe failed and returns the
// service to stopped.
func (s *Service) abortStart(ctx context.Context, pool Pool, probeErr error) error {
	if relErr := <-pool.Release(); relErr != nil {
		s.log.WithContext(ctx).Warn("Failed to release pool after probe failure", logger.ErrorFields("release", relErr))
	}
	s.setPool(nil)
	s.setState(ctx, component.StateStopped)
	s.log.WithContext(ctx).Error("Startup probe failed", logger.ErrorFields("probe", probeErr))
	return apperrors.ConnectionFailed(s.name).WithCause(probeErr)
}

// Stop releases the pool and waits for confirmation without a deadline;
// ctx carries tracing only and does not bound the wait.
// On failure the pool is kept and the service stays stopping so Stop can
// be retried.
func (s *Service) Stop(ctx context.Context) (err error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	ctx, span := s.inst.StartSpan(ctx, s.name, s.name+".stop")
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	log := s.log.WithContext(ctx)
	log.Info(fmt.Sprintf("Attempting to close %s connections", s.name))
	s.setState(ctx, component.StateStopping)

	pool, ok := s.current()
	if !ok {
		s.setState(ctx, component.StateStopped)
		log.Info("No connections to close, stopped")
		return nil
	}

	if relErr := <-pool.Release(); relErr != nil {
		log.Error(fmt.Sprintf("Failed to close %s connections", s.name), logger.ErrorFields("stop", relErr))
		return FromDatabase(relErr).WithDetail("component", s.name)
	}

	s.setPool(nil)
	s.setState(ctx, component.StateStopped)
	log.Info(fmt.Sprintf("%s connections closed successfully", s.name), map[string]interface{}{
		"pool_id": pool.ID().String(),
	})
	return nil
}

// Health probes the current pool. It never returns an error; every failure
// becomes an unhealthy result.
func (s *Service) Health(ctx context.Context) component.Health {
	h := component.Health{Name: s.name, Status: component.StatusHealthy}

	pool, ok := s.current()
	if !ok {
		h.Status = component.StatusUnhealthy
		h.Message = s.name + " instance not initialised"
		return h
	}

	if err := s.probe(ctx, pool); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("Failed to connect to %s: %v", s.name, err)
	}
	return h
}

// Status reports the lifecycle state.
func (s *Service) Status(_ context.Context) component.Status {
	return component.Status{Name: s.name, State: s.currentState()}
}

// Instance returns the live pool, or an error matching ErrNotReady.
func (s *Service) Instance() (Pool, error) {
	pool, ok := s.current()
	if !ok {
		return nil, apperrors.NotReady(s.name)
	}
	return pool, nil
}

// DB returns the GORM session of the live pool.
func (s *Service) DB() (*gorm.DB, error) {
	pool, err := s.Instance()
	if err != nil {
		return nil, err
	}
	gp, ok := pool.(interface{ DB() *gorm.DB })
	if !ok {
		return nil, apperrors.Internal(fmt.Errorf("pool %T has no gorm session", pool))
	}
	return gp.DB(), nil
}

// Stats returns connection pool statistics of the live pool.
func (s *Service) Stats() (sql.DBStats, error) {
	pool, err := s.Instance()
	if err != nil {
		return sql.DBStats{}, err
	}
	sp, ok := pool.(interface{ Stats() sql.DBStats })
	if !ok {
		return sql.DBStats{}, apperrors.Internal(fmt.Errorf("pool %T reports no stats", pool))
	}
	return sp.Stats(), nil
}

// Describe returns the startup summary entry.
func (s *Service) Describe() component.Description {
	return component.Description{
		Name: "MySQL",
		Type: "database",
		Details: fmt.Sprintf("%s:%d/%s pool=%d/%d",
			s.cfg.Redacted(), s.cfg.Port, s.cfg.Database, s.cfg.MaxOpenConns, s.cfg.MaxIdleConns),
		Port: s.cfg.Port,
	}
}

// probe runs ProbeQuery bounded by the probe timeout. Panics raised by the
// pool are returned as errors.
func (s *Service) probe(ctx context.Context, pool Pool) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.probeTimeout())
	defer cancel()

	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
		s.inst.RecordProbe(ctx, s.name, time.Since(began), err)
	}()

	return pool.Raw(ctx, ProbeQuery)
}

func (s *Service) current() (Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool, s.pool != nil
}

func (s *Service) setPool(p Pool) {
	s.mu.Lock()
	s.pool = p
	s.mu.Unlock()
}

func (s *Service) currentState() component.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(ctx context.Context, state component.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.inst.RecordTransition(ctx, s.name, string(state))
	s.log.Debug("State changed", map[string]interface{}{logger.FieldState: string(state)})
}
