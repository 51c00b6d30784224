// Package scheduler runs the periodic device sampling loop.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/akvarma/devpulse/internal/alerter"
	"github.com/akvarma/devpulse/internal/settings"
	"github.com/akvarma/devpulse/internal/simulator"
	"github.com/akvarma/devpulse/internal/store"
)

// joinTimeout bounds how long Stop waits for the loop goroutine to exit.
const joinTimeout = 2 * time.Second

// Scheduler owns the run/stop lifecycle of the sampling loop. It is an
// explicit two-state machine (stopped/running) guarded by a mutex. Each
// cycle samples every device in stable order, persists the snapshot, then
// hands it to the alerter; the end-of-cycle sleep reads the refresh interval
// fresh from settings so changes take effect on the next tick.
type Scheduler struct {
	fleet    *simulator.Fleet
	store    *store.Store
	alerter  *alerter.Alerter
	settings *settings.Settings

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastCycle time.Time
}

// New creates a scheduler in the stopped state.
func New(fleet *simulator.Fleet, st *store.Store, al *alerter.Alerter, set *settings.Settings) *Scheduler {
	return &Scheduler{
		fleet:    fleet,
		store:    st,
		alerter:  al,
		settings: set,
	}
}

// Start transitions the scheduler to running and spawns the loop goroutine.
// Calling Start while already running is a no-op. The context is the parent
// for notification dispatch; its cancellation also stops the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(ctx, s.stopCh, s.doneCh)
	slog.Info("scheduler started", "devices", len(s.fleet.Devices()))
}

// Stop signals the loop to exit after its current sleep or cycle and waits
// up to two seconds for it to finish. The join is best-effort: a cycle in
// flight may still complete a pending append/notify after Stop returns,
// which is safe — those writes belong to a cycle begun before the signal.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		slog.Info("scheduler stopped")
	case <-time.After(joinTimeout):
		slog.Warn("scheduler loop did not exit before timeout")
	}
}

// Running reports whether the sampling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastCycle returns when the most recent cycle completed. Zero before the
// first cycle.
func (s *Scheduler) LastCycle() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle
}

func (s *Scheduler) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	for {
		// Stop is checked at loop top and during the sleep, never mid-cycle.
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.cycle(ctx)

		interval := time.Duration(s.settings.RefreshInterval()) * time.Second
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// cycle samples every device once, sequentially, in stable order. A storage
// failure for one device is logged and skips that device's notification;
// the cycle proceeds to the next device.
func (s *Scheduler) cycle(ctx context.Context) {
	for _, d := range s.fleet.Devices() {
		snap := s.fleet.Sample(d)

		if err := s.store.Append(snap); err != nil {
			slog.Error("appending snapshot", "device", d.ID, "error", err)
			continue
		}

		s.alerter.EvaluateAndNotify(ctx, d, snap)
	}

	s.mu.Lock()
	s.lastCycle = time.Now()
	s.mu.Unlock()
}
