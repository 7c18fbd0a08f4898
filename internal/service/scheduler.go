package service

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"rfid-asset-tracker/internal/repository"
)

// SchedulerOptions holds configuration for the drain scheduler.
type SchedulerOptions struct {
	// WatchInterval is how often the stored drain period is re-read to
	// detect operator changes. Default: 30 seconds.
	WatchInterval time.Duration

	// DrainTimeout bounds a single drain cycle. Default: 2 minutes.
	DrainTimeout time.Duration
}

// DrainScheduler runs the drainer on a timer whose period lives in the
// database. A slower watch ticker re-reads the period and rearms the drain
// timer when an operator changes it. Drains never overlap: they all run on
// the scheduler goroutine, and a tick that fires mid-drain is dropped, not
// queued.
type DrainScheduler struct {
	drainer *Drainer
	repo    repository.TrackingRepository
	opts    SchedulerOptions

	mu          sync.Mutex
	lastApplied time.Duration
	isRunning   bool

	drainMu  sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDrainScheduler creates a scheduler.
func NewDrainScheduler(drainer *Drainer, repo repository.TrackingRepository, opts SchedulerOptions) *DrainScheduler {
	if opts.WatchInterval == 0 {
		opts.WatchInterval = 30 * time.Second
	}
	if opts.DrainTimeout == 0 {
		opts.DrainTimeout = 2 * time.Minute
	}

	return &DrainScheduler{
		drainer: drainer,
		repo:    repo,
		opts:    opts,
		stopCh:  make(chan struct{}),
	}
}

// Start arms the drain timer at the stored period and begins ticking.
func (s *DrainScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	period := s.fetchPeriod()
	s.mu.Lock()
	s.lastApplied = period
	s.mu.Unlock()

	log.Printf("[DrainScheduler] Started - Period: %v, Watch interval: %v",
		s.Period(), s.opts.WatchInterval)

	s.wg.Add(1)
	go s.run()
}

// run is the scheduler loop. Drains execute synchronously on this goroutine,
// so two drains can never overlap.
func (s *DrainScheduler) run() {
	defer s.wg.Done()

	drainTick := time.NewTicker(s.Period())
	defer drainTick.Stop()

	watchTick := time.NewTicker(s.opts.WatchInterval)
	defer watchTick.Stop()

	for {
		select {
		case <-drainTick.C:
			s.runDrain()
			// Drop a tick that fired while the drain was executing.
			select {
			case <-drainTick.C:
			default:
			}

		case <-watchTick.C:
			s.reloadPeriod(drainTick)

		case <-s.stopCh:
			log.Printf("[DrainScheduler] Stopped")
			return
		}
	}
}

// runDrain executes one cycle. Panics and errors are logged, never fatal:
// the scheduler keeps ticking and the next cycle retries.
func (s *DrainScheduler) runDrain() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[DrainScheduler] PANIC in drain cycle: %v\n%s", r, debug.Stack())
		}
	}()

	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DrainTimeout)
	defer cancel()

	if _, err := s.drainer.Drain(ctx); err != nil {
		log.Printf("[DrainScheduler] Drain cycle failed, retrying next tick: %v", err)
	}
}

// reloadPeriod compares the stored period against the last applied one and
// rearms the drain ticker on change. An in-flight drain is not cancelled.
func (s *DrainScheduler) reloadPeriod(drainTick *time.Ticker) {
	period := s.fetchPeriod()

	s.mu.Lock()
	changed := period != s.lastApplied
	if changed {
		s.lastApplied = period
	}
	s.mu.Unlock()

	if changed {
		drainTick.Reset(period)
		log.Printf("[DrainScheduler] Period changed, timer rearmed at %v", period)
	}
}

// fetchPeriod reads the stored drain period, falling back to the default.
func (s *DrainScheduler) fetchPeriod() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := s.repo.GetIntervalConfig(ctx)
	if err != nil {
		log.Printf("[DrainScheduler] Error reading interval config: %v", err)
		s.mu.Lock()
		last := s.lastApplied
		s.mu.Unlock()
		if last > 0 {
			return last
		}
		cfg.PeriodMS = 0
	}
	return cfg.Period()
}

// Period returns the currently applied drain period.
func (s *DrainScheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApplied
}

// RunNow triggers an immediate drain cycle, serialized against scheduled
// ones.
func (s *DrainScheduler) RunNow(ctx context.Context) (DrainReport, error) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	return s.drainer.Drain(ctx)
}

// Stop shuts the scheduler down, waiting for an in-flight drain to finish.
func (s *DrainScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	})
}
