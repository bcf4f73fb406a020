package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/timezone"
	"github.com/hearthbot/remindd/store"
)

// Scheduler runs the periodic sweep of due reminders and the daily janitor.
// It is the sole writer of completion and reschedule transitions.
type Scheduler struct {
	profile    *profile.Profile
	store      *store.Store
	dispatcher *Dispatcher
	registry   *timezone.Registry
	metrics    *observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewScheduler creates the sweeper.
func NewScheduler(p *profile.Profile, st *store.Store, dispatcher *Dispatcher, registry *timezone.Registry, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		profile:    p,
		store:      st,
		dispatcher: dispatcher,
		registry:   registry,
		metrics:    metrics,
		logger:     slog.Default(),
		now:        time.Now,
	}
}

// Run sweeps until ctx is cancelled. Ticks never overlap: a tick that
// outlasts the interval simply delays the next one. The in-flight tick
// finishes before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	janitor := cron.New()
	if _, err := janitor.AddFunc("@daily", func() { s.runJanitor(ctx) }); err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	ticker := time.NewTicker(s.profile.ProcessingInterval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.profile.ProcessingInterval, "batch", s.profile.BatchSize)
	s.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return nil
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

// runTick executes one sweep with panic containment, so no single bad record
// can kill the loop.
func (s *Scheduler) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweeper tick panicked", "panic", r)
		}
	}()

	s.metrics.RecordTick()
	s.processDue(ctx)
}

func (s *Scheduler) processDue(ctx context.Context) {
	due, err := s.store.PollDue(ctx, s.now().Unix(), s.profile.BatchSize)
	if err != nil {
		s.logger.Error("failed to poll due reminders", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	start := s.now()
	for _, r := range due {
		if ctx.Err() != nil {
			return
		}

		s.metrics.RecordDispatch()
		outcome, err := s.dispatcher.Dispatch(ctx, r)
		switch outcome {
		case Delivered:
			s.metrics.RecordDelivered()
			s.retireOrAdvance(ctx, r)
		case TransientFailure:
			// Left active; the next tick retries.
			s.metrics.RecordTransient()
			s.logger.Warn("delivery failed, will retry",
				"reminder", r.UID,
				"owner", r.OwnerID,
				"error", err,
			)
		case PermanentlyUndeliverable:
			s.metrics.RecordPermanent()
			s.logger.Error("retiring undeliverable reminder",
				"reminder", r.UID,
				"owner", r.OwnerID,
				"error", err,
			)
			if _, err := s.store.CompleteReminder(ctx, r.ID, s.now().Unix()); err != nil {
				s.logger.Error("failed to retire reminder", "reminder", r.UID, "error", err)
			}
		}
	}
	s.logger.Info("tick processed",
		"count", len(due),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
}

// retireOrAdvance completes a one-shot reminder or moves a recurring one to
// its next occurrence. Either transition is conditional on the record still
// being active, so a concurrent user cancel wins quietly.
func (s *Scheduler) retireOrAdvance(ctx context.Context, r *store.Reminder) {
	if !r.IsRecurring() {
		if _, err := s.store.CompleteReminder(ctx, r.ID, s.now().Unix()); err != nil {
			s.logger.Error("failed to complete reminder", "reminder", r.UID, "error", err)
		}
		return
	}

	next := s.nextOccurrence(r)
	ok, err := s.store.RescheduleReminder(ctx, r.ID, next.Unix())
	if err != nil {
		s.logger.Error("failed to reschedule reminder", "reminder", r.UID, "error", err)
		return
	}
	if ok {
		s.metrics.RecordRescheduled()
		s.logger.Info("recurring reminder advanced",
			"reminder", r.UID,
			"next", next.UTC().Format(time.RFC3339),
		)
	}
}

// nextOccurrence advances from the stored due instant by whole cadence
// periods until the result is in the future. Stepping in the reminder's zone
// keeps the local wall time stable across DST changes, and stepping from the
// stored instant rather than from now keeps the cadence from drifting with
// dispatch latency.
func (s *Scheduler) nextOccurrence(r *store.Reminder) time.Time {
	loc := time.UTC
	if zone, err := timezone.Resolve(r.Timezone); err == nil {
		loc = zone.Location
	}

	next := time.Unix(r.DueTs, 0).In(loc)
	now := s.now()
	for !next.After(now) {
		if r.Cadence == store.CadenceWeekly {
			next = next.AddDate(0, 0, 7)
		} else {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

// runJanitor purges terminal reminders past the retention window and drops
// cached zones for owners with nothing scheduled.
func (s *Scheduler) runJanitor(ctx context.Context) {
	cutoff := s.now().AddDate(0, 0, -s.profile.CleanupDays).Unix()
	purged, err := s.store.PurgeTerminalReminders(ctx, cutoff)
	if err != nil {
		s.logger.Error("janitor purge failed", "error", err)
		return
	}
	s.metrics.RecordPurged(purged)

	owners, err := s.store.ListActiveOwners(ctx)
	if err != nil {
		s.logger.Error("janitor owner listing failed", "error", err)
		return
	}
	s.registry.Evict(owners)
	s.logger.Info("janitor finished", "purged", purged, "active_owners", len(owners))
}
