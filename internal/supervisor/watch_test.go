package supervisor

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/powerdevhq/powerdev/internal/container"
)

// scriptedRuntime walks through a fixed sequence of observations and
// counts restarts.
type scriptedRuntime struct {
	mu       sync.Mutex
	states   []container.State
	healths  []container.HealthStatus
	idx      int
	restarts int
}

func (r *scriptedRuntime) step() int {
	if r.idx >= len(r.states) {
		return len(r.states) - 1
	}
	return r.idx
}

func (r *scriptedRuntime) State(_ context.Context, _ string) (container.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[r.step()], nil
}

func (r *scriptedRuntime) Health(_ context.Context, _ string) (container.HealthStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.healths[r.step()]
	r.idx++
	return h, nil
}

func (r *scriptedRuntime) Restart(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restarts++
	return nil
}

func (r *scriptedRuntime) restartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restarts
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSupervisor(rt Runtime) *Supervisor {
	s := New(rt, container.Name, quietLogger())
	s.Interval = time.Millisecond
	s.Grace = 0
	return s
}

func TestWatchEndsWhenContainerAbsent(t *testing.T) {
	rt := &scriptedRuntime{
		states:  []container.State{container.StateAbsent},
		healths: []container.HealthStatus{container.HealthNone},
	}

	done := make(chan error, 1)
	go func() {
		done <- testSupervisor(rt).Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watch did not end for absent container")
	}

	if rt.restartCount() != 0 {
		t.Errorf("restarts = %d, want 0", rt.restartCount())
	}
}

func TestWatchRestartsOncePerUnhealthyObservation(t *testing.T) {
	// One unhealthy observation, then healthy, then gone.
	rt := &scriptedRuntime{
		states: []container.State{
			container.StateRunning,
			container.StateRunning,
			container.StateAbsent,
		},
		healths: []container.HealthStatus{
			container.Unhealthy,
			container.Healthy,
			container.HealthNone,
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- testSupervisor(rt).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not end")
	}

	if rt.restartCount() != 1 {
		t.Errorf("restarts = %d, want exactly 1", rt.restartCount())
	}
}

func TestWatchHealthyNeverRestarts(t *testing.T) {
	rt := &scriptedRuntime{
		states: []container.State{
			container.StateRunning,
			container.StateRunning,
			container.StateRunning,
			container.StateAbsent,
		},
		healths: []container.HealthStatus{
			container.Healthy,
			container.Healthy,
			container.Healthy,
			container.HealthNone,
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- testSupervisor(rt).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not end")
	}

	if rt.restartCount() != 0 {
		t.Errorf("restarts = %d, want 0", rt.restartCount())
	}
}

func TestWatchCancellation(t *testing.T) {
	// Healthy forever; only cancellation can end the loop.
	rt := &scriptedRuntime{
		states:  []container.State{container.StateRunning},
		healths: []container.HealthStatus{container.Healthy},
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- testSupervisor(rt).Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watch did not honor cancellation")
	}
}
