package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bourse/models"

	log "github.com/sirupsen/logrus"
)

// tickTimeout bounds one auto-advance attempt
const tickTimeout = 2 * time.Minute

// Scheduler drives the simulation forward on a fixed interval. The
// enabled flag and interval are persisted; the countdown itself lives in
// memory, so a process restart re-arms a fresh full interval.
type Scheduler struct {
	uowFactory UnitOfWorkFactory
	sim        SimulationService

	mu        sync.Mutex
	enabled   bool
	interval  time.Duration
	paused    bool
	running   bool
	nextRunAt time.Time
	timer     *time.Timer
}

// NewScheduler creates the auto-advance scheduler. defaultIntervalMinutes
// is the interval reported and armed until an admin configures the timer.
// Call Start to load the persisted config and arm the timer.
func NewScheduler(uowFactory UnitOfWorkFactory, sim SimulationService, defaultIntervalMinutes int) *Scheduler {
	if defaultIntervalMinutes <= 0 {
		defaultIntervalMinutes = 60
	}
	return &Scheduler{
		uowFactory: uowFactory,
		sim:        sim,
		interval:   time.Duration(defaultIntervalMinutes) * time.Minute,
	}
}

// Start loads the persisted config and, if auto-advance was enabled
// before the restart, arms a fresh full interval. With no persisted
// config the scheduler stays disabled on the default interval.
func (s *Scheduler) Start(ctx context.Context) error {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = cfg.Enabled
	s.interval = time.Duration(cfg.IntervalMinutes) * time.Minute
	if s.enabled {
		s.armLocked(s.interval)
		log.WithFields(log.Fields{
			"intervalMinutes": cfg.IntervalMinutes,
			"nextRunAt":       s.nextRunAt,
		}).Info("Auto-advance scheduler armed from persisted config")
	}
	return nil
}

// Configure persists the enabled flag and interval, then re-arms or
// disarms the in-memory timer to match
func (s *Scheduler) Configure(ctx context.Context, enabled bool, intervalMinutes int) (*models.SchedulerStatus, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("interval must be at least one minute")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.SchedulerConfigRepository().Upsert(ctx, enabled, intervalMinutes); err != nil {
		return nil, fmt.Errorf("failed to save scheduler config: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.interval = time.Duration(intervalMinutes) * time.Minute
	if enabled && !s.paused {
		s.armLocked(s.interval)
	} else if !enabled {
		s.disarmLocked()
	}

	log.WithFields(log.Fields{
		"enabled":         enabled,
		"intervalMinutes": intervalMinutes,
	}).Info("Auto-advance scheduler configured")

	return s.statusLocked(), nil
}

// Status returns the live timer state
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.statusLocked()
}

// Pause freezes the countdown and marks the simulation paused, persisting
// the remaining time so a later resume can honor it
func (s *Scheduler) Pause(ctx context.Context) error {
	s.mu.Lock()
	var remainingMs *int64
	if s.enabled && !s.paused && !s.nextRunAt.IsZero() {
		remaining := time.Until(s.nextRunAt)
		if remaining < 0 {
			remaining = 0
		}
		ms := remaining.Milliseconds()
		remainingMs = &ms
	}
	s.paused = true
	s.disarmLocked()
	s.mu.Unlock()

	if err := s.sim.PauseSimulation(ctx, remainingMs); err != nil {
		// The simulation rejected the pause, undo the freeze
		s.mu.Lock()
		s.paused = false
		if s.enabled {
			s.armLocked(s.interval)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Resume clears the paused state and re-arms the timer with whatever
// countdown was frozen at pause time, falling back to a full interval
func (s *Scheduler) Resume(ctx context.Context) error {
	remainingMs, err := s.sim.ResumeSimulation(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	if !s.enabled {
		return nil
	}
	d := s.interval
	if remainingMs != nil && *remainingMs > 0 {
		d = time.Duration(*remainingMs) * time.Millisecond
	}
	s.armLocked(d)
	return nil
}

// ResetTimer restarts the countdown at a full interval. Called after a
// manual day change so the next automatic advance does not fire right
// behind it.
func (s *Scheduler) ResetTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled && !s.paused {
		s.armLocked(s.interval)
	}
}

// Disable turns auto-advance off persistently. Used when the simulation
// ends so the status stops reporting a timer that will never fire and a
// restart does not re-arm against an ended simulation.
func (s *Scheduler) Disable(ctx context.Context) {
	s.disable(ctx)
}

// Stop disarms the timer without touching the persisted config. Only for
// process shutdown, a live scheduler that should stop firing goes through
// Disable or Configure.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

// tick runs one scheduled advance attempt. Races with manual operations
// are expected and resolve through the state machine's sentinel errors.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if !s.enabled || s.paused || s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	rearm := s.advance(ctx)

	s.mu.Lock()
	s.running = false
	if rearm && s.enabled && !s.paused {
		s.armLocked(s.interval)
	}
	s.mu.Unlock()
}

// advance performs the state-dependent action for one tick and reports
// whether the timer should re-arm
func (s *Scheduler) advance(ctx context.Context) bool {
	dayControl, err := s.sim.GetDayControl(ctx)
	if err != nil {
		log.WithError(err).Error("Scheduler failed to read day control")
		return true
	}

	// Not started yet: the first tick starts the simulation
	if dayControl == nil || dayControl.State() == models.SimulationStateNotStarted {
		if _, err := s.sim.StartSimulation(ctx); err != nil && !errors.Is(err, ErrAlreadyStarted) {
			log.WithError(err).Error("Scheduler failed to start simulation")
		}
		return true
	}

	if dayControl.State() == models.SimulationStateEnded || dayControl.AtDayLimit() {
		s.disable(ctx)
		return false
	}

	_, err = s.sim.AdvanceDay(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrLimitReached):
		s.disable(ctx)
		return false
	case errors.Is(err, ErrDayConflict), errors.Is(err, ErrNotActive):
		// A manual operation raced this tick, nothing to do
		log.WithError(err).Debug("Scheduled advance lost a race")
	default:
		log.WithError(err).Error("Scheduled advance failed")
	}
	return true
}

// disable turns auto-advance off persistently, keeping the interval so a
// later re-enable starts from the same setting
func (s *Scheduler) disable(ctx context.Context) {
	s.mu.Lock()
	s.enabled = false
	interval := s.interval
	s.disarmLocked()
	s.mu.Unlock()

	intervalMinutes := int(interval / time.Minute)
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to persist scheduler disable")
		return
	}
	defer uow.Rollback()
	if _, err := uow.SchedulerConfigRepository().Upsert(ctx, false, intervalMinutes); err != nil {
		log.WithError(err).Error("Failed to persist scheduler disable")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Failed to persist scheduler disable")
		return
	}

	log.Info("Auto-advance disabled")
}

func (s *Scheduler) loadConfig(ctx context.Context) (*models.SchedulerConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cfg, err := uow.SchedulerConfigRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler config: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return cfg, nil
}

// armLocked (re)starts the countdown. Caller holds the mutex.
func (s *Scheduler) armLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.nextRunAt = time.Now().Add(d)
	s.timer = time.AfterFunc(d, s.tick)
}

// disarmLocked stops the countdown. Caller holds the mutex.
func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextRunAt = time.Time{}
}

func (s *Scheduler) statusLocked() *models.SchedulerStatus {
	status := &models.SchedulerStatus{
		Enabled:         s.enabled,
		IntervalMinutes: int(s.interval / time.Minute),
		Paused:          s.paused,
		Running:         s.running,
	}
	if s.enabled && !s.paused && !s.nextRunAt.IsZero() {
		t := s.nextRunAt
		status.NextRunAt = &t
	}
	return status
}
