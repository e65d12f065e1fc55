/*
scheduler.go - Background reminder scheduler

PURPOSE:
  Periodically invokes the reminder sweep so upcoming-vacation and
  day-of notifications go out without operator action.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The sweep itself is idempotent per day, so a short interval only
    costs duplicate-detection reads, never duplicate notifications

USAGE:
  scheduler := NewReminderScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - vacation/notify.go: RunReminderSweep
  - handlers.go: RunReminderSweep endpoint (manual trigger)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/vacation-engine/vacation"
)

// ReminderScheduler triggers the reminder sweep on an interval.
type ReminderScheduler struct {
	Service       *vacation.Service
	CheckInterval time.Duration
	Enabled       bool
	Log           zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(service *vacation.Service) *ReminderScheduler {
	return &ReminderScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Log:           zerolog.Nop(),
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info().Msg("reminder scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Log.Info().Dur("interval", rs.CheckInterval).Msg("reminder scheduler started")
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Log.Info().Msg("reminder scheduler stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReminderScheduler) sweep() {
	ctx := context.Background()
	today := rs.Service.Clock.Today()

	result, err := rs.Service.RunReminderSweep(ctx, today)
	if err != nil {
		rs.Log.Error().Err(err).Msg("reminder sweep failed")
		return
	}
	if result.Created > 0 {
		rs.Log.Info().
			Int("created", result.Created).
			Int("skipped", result.Skipped).
			Msg("reminder sweep created notifications")
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *ReminderScheduler) RunNow() {
	rs.sweep()
}
