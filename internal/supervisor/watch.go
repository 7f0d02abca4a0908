package supervisor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/powerdevhq/powerdev/internal/container"
)

// Runtime is the slice of the engine client the supervisor needs.
type Runtime interface {
	State(ctx context.Context, name string) (container.State, error)
	Health(ctx context.Context, name string) (container.HealthStatus, error)
	Restart(ctx context.Context, name string) error
}

const (
	// DefaultInterval is the polling period between health checks.
	DefaultInterval = 60 * time.Second

	// DefaultGrace is the extra pause after a restart, giving the
	// container time to come up before the next observation.
	DefaultGrace = 30 * time.Second
)

// Supervisor polls one container's health and restarts it on failure.
type Supervisor struct {
	Runtime   Runtime
	Container string
	Interval  time.Duration
	Grace     time.Duration
	Log       *logrus.Logger
}

// New builds a supervisor with the default interval and grace period.
func New(rt Runtime, name string, log *logrus.Logger) *Supervisor {
	return &Supervisor{
		Runtime:   rt,
		Container: name,
		Interval:  DefaultInterval,
		Grace:     DefaultGrace,
		Log:       log,
	}
}

// Run blocks until the container disappears or ctx is cancelled.
// Returns nil in both cases: neither is a supervision failure.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.Log.WithField("container", s.Container)
	log.WithField("interval", s.Interval).Info("watching container health")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First observation happens immediately, then once per tick.
	if done := s.observe(ctx, log); done {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("watch cancelled")
			return nil
		case <-ticker.C:
			if done := s.observe(ctx, log); done {
				return nil
			}
		}
	}
}

// observe performs one health check and at most one restart. Returns
// true when the loop should end.
func (s *Supervisor) observe(ctx context.Context, log *logrus.Entry) bool {
	if ctx.Err() != nil {
		return true
	}

	state, err := s.Runtime.State(ctx, s.Container)
	if err != nil {
		log.WithError(err).Warn("failed to query container state")
		return false
	}

	if state == container.StateAbsent {
		log.Info("container is gone, ending watch")
		return true
	}

	health, err := s.Runtime.Health(ctx, s.Container)
	if err != nil {
		log.WithError(err).Warn("failed to query container health")
		return false
	}

	if health == container.Healthy {
		log.WithField("health", health).Debug("container healthy")
		return false
	}

	log.WithField("health", health).Warn("container not healthy, restarting")
	if err := s.Runtime.Restart(ctx, s.Container); err != nil {
		log.WithError(err).Error("restart failed")
		return false
	}

	log.WithField("grace", s.Grace).Info("restarted, waiting before next check")
	s.sleep(ctx, s.Grace)
	return false
}

// sleep pauses for d but wakes early on cancellation.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
