package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/server/chat"
	"github.com/hearthbot/remindd/server/timezone"
	"github.com/hearthbot/remindd/store"
)

type schedulerFixture struct {
	scheduler *Scheduler
	store     *store.Store
	transport *chat.MockTransport
	registry  *timezone.Registry
	metrics   *observability.Metrics
	now       time.Time
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	p := newTestProfile(t)
	st := store.New(store.NewMemoryDriver(), p)
	transport := chat.NewMockTransport()
	registry := timezone.NewRegistry(st)
	metrics := observability.NewMetrics()

	f := &schedulerFixture{
		scheduler: NewScheduler(p, st, NewDispatcher(transport, p), registry, metrics),
		store:     st,
		transport: transport,
		registry:  registry,
		metrics:   metrics,
		now:       fixedNow,
	}
	f.scheduler.now = func() time.Time { return f.now }
	return f
}

func (f *schedulerFixture) seed(t *testing.T, r *store.Reminder) *store.Reminder {
	t.Helper()
	if r.Status == "" {
		r.Status = store.StatusActive
	}
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
	if r.CreatedTs == 0 {
		r.CreatedTs = f.now.Add(-time.Hour).Unix()
	}
	created, err := f.store.CreateReminder(context.Background(), r)
	require.NoError(t, err)
	return created
}

func TestTickCompletesDelivered(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "stand up", DueTs: f.now.Add(-time.Minute).Unix()})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedTs)
	assert.Equal(t, f.now.Unix(), *got.CompletedTs)
	assert.Len(t, f.transport.Sent(), 1)

	snapshot := f.metrics.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.Delivered)
}

func TestTickSkipsNotYetDue(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "later", DueTs: f.now.Add(time.Hour).Unix()})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, got.Status)
	assert.Empty(t, f.transport.Sent())
}

func TestTickAdvancesRecurringWithoutDrift(t *testing.T) {
	// Due 09:00, dispatched at 09:00:42. The next occurrence is the next
	// day's 09:00 sharp, not 09:00:42.
	ctx := context.Background()
	f := newSchedulerFixture(t)
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.now = due.Add(42 * time.Second)
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "daily standup", DueTs: due.Unix(), Cadence: store.CadenceDaily})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, got.Status)
	assert.Equal(t, due.AddDate(0, 0, 1).Unix(), got.DueTs)
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().Rescheduled)
}

func TestTickAdvancesRecurringPastMissedPeriods(t *testing.T) {
	// Two days of transient failures: advancement still lands on the
	// original cadence grid, skipping the missed occurrences.
	ctx := context.Background()
	f := newSchedulerFixture(t)
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.now = due.AddDate(0, 0, 2).Add(time.Minute)
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "daily standup", DueTs: due.Unix(), Cadence: store.CadenceDaily})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 3).Unix(), got.DueTs)
}

func TestTickLeavesTransientFailuresActive(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.transport.FailDirect(42, chat.Transient("bridge down"))
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "retry me", DueTs: f.now.Add(-time.Minute).Unix()})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, got.Status)
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().Transient)

	// The bridge recovers; the next tick delivers.
	f.transport.FailDirect(42, nil)
	f.scheduler.runTick(ctx)

	got, err = f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
}

func TestTickRetiresUndeliverable(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.transport.FailDirect(42, chat.Permanent("unknown user"))
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "lost", DueTs: f.now.Add(-time.Minute).Unix()})

	f.scheduler.runTick(ctx)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().Permanent)
}

func TestCancelWinsOverCompletion(t *testing.T) {
	// A user cancel landing between poll and completion sticks; the
	// conditional completion is a no-op.
	ctx := context.Background()
	f := newSchedulerFixture(t)
	r := f.seed(t, &store.Reminder{UID: "r-1", OwnerID: 42, Body: "racy", DueTs: f.now.Add(-time.Minute).Unix()})

	ok, err := f.store.CancelReminder(ctx, r.ID, 42)
	require.NoError(t, err)
	require.True(t, ok)

	f.scheduler.retireOrAdvance(ctx, r)

	got, err := f.store.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCancelled, got.Status)
}

func TestJanitorPurgesAndEvicts(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	// Terminal and old enough to purge.
	oldTs := f.now.AddDate(0, 0, -40).Unix()
	stale := f.seed(t, &store.Reminder{UID: "r-old", OwnerID: 7, Body: "done long ago", DueTs: oldTs, CreatedTs: oldTs})
	_, err := f.store.CompleteReminder(ctx, stale.ID, oldTs)
	require.NoError(t, err)

	// Active, stays.
	kept := f.seed(t, &store.Reminder{UID: "r-new", OwnerID: 42, Body: "still pending", DueTs: f.now.Add(time.Hour).Unix()})

	_, err = f.registry.Set(ctx, 7, "japan")
	require.NoError(t, err)
	_, err = f.registry.Set(ctx, 42, "japan")
	require.NoError(t, err)
	require.Equal(t, 2, f.registry.CacheSize())

	f.scheduler.runJanitor(ctx)

	got, err := f.store.GetReminder(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.store.GetReminder(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Owner 7 has nothing scheduled anymore, its cached zone is dropped.
	assert.Equal(t, 1, f.registry.CacheSize())
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().Purged)
}
