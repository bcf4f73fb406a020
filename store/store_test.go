package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/store"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "memory"}
	require.NoError(t, p.Validate())
	return store.New(store.NewMemoryDriver(), p)
}

func seed(t *testing.T, st *store.Store, owner int64, due time.Time) *store.Reminder {
	t.Helper()
	created, err := st.CreateReminder(context.Background(), &store.Reminder{
		UID:       fmt.Sprintf("r-%d-%d", owner, due.Unix()),
		OwnerID:   owner,
		Body:      "task",
		DueTs:     due.Unix(),
		CreatedTs: baseTime.Unix(),
		Timezone:  "UTC",
		Status:    store.StatusActive,
	})
	require.NoError(t, err)
	return created
}

func TestPollDueOrdersByDueTime(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	late := seed(t, st, 42, baseTime.Add(-time.Minute))
	early := seed(t, st, 42, baseTime.Add(-time.Hour))
	seed(t, st, 42, baseTime.Add(time.Hour)) // not yet due

	due, err := st.PollDue(ctx, baseTime.Unix(), 100)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)
}

func TestPollDueRespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for i := 0; i < 5; i++ {
		seed(t, st, 42, baseTime.Add(-time.Duration(i+1)*time.Minute))
	}

	due, err := st.PollDue(ctx, baseTime.Unix(), 3)
	require.NoError(t, err)
	assert.Len(t, due, 3)
}

func TestCompleteReminderIsConditional(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	r := seed(t, st, 42, baseTime)

	ok, err := st.CompleteReminder(ctx, r.ID, baseTime.Unix())
	require.NoError(t, err)
	assert.True(t, ok)

	// Idempotent: already terminal.
	ok, err = st.CompleteReminder(ctx, r.ID, baseTime.Unix())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedTs)
}

func TestCancelDoesNotOverrideCompletion(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	r := seed(t, st, 42, baseTime)

	ok, err := st.CompleteReminder(ctx, r.ID, baseTime.Unix())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.CancelReminder(ctx, r.ID, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
}

func TestCancelStampsCompletedTs(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	r := seed(t, st, 42, baseTime)

	before := time.Now().Unix()
	ok, err := st.CancelReminder(ctx, r.ID, 42)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := st.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedTs)
	assert.GreaterOrEqual(t, *got.CompletedTs, before)
}

func TestRescheduleOnlyActive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	r := seed(t, st, 42, baseTime)

	ok, err := st.CancelReminder(ctx, r.ID, 42)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.RescheduleReminder(ctx, r.ID, baseTime.Add(time.Hour).Unix())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountActiveRemindersPerOwner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seed(t, st, 42, baseTime.Add(time.Hour))
	cancelled := seed(t, st, 42, baseTime.Add(2*time.Hour))
	seed(t, st, 7, baseTime.Add(time.Hour))

	_, err := st.CancelReminder(ctx, cancelled.ID, 42)
	require.NoError(t, err)

	count, err := st.CountActiveReminders(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPurgeTerminalKeepsRecent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	old := seed(t, st, 42, baseTime.AddDate(0, 0, -40))
	recent := seed(t, st, 42, baseTime.AddDate(0, 0, -1))
	active := seed(t, st, 42, baseTime.Add(time.Hour))

	_, err := st.CompleteReminder(ctx, old.ID, baseTime.AddDate(0, 0, -40).Unix())
	require.NoError(t, err)
	_, err = st.CompleteReminder(ctx, recent.ID, baseTime.AddDate(0, 0, -1).Unix())
	require.NoError(t, err)

	purged, err := st.PurgeTerminalReminders(ctx, baseTime.AddDate(0, 0, -30).Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, err := st.GetReminder(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = st.GetReminder(ctx, active.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestUserPreferenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	pref, err := st.GetUserPreference(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, pref)

	_, err = st.UpsertUserPreference(ctx, &store.UpsertUserPreference{UserID: 42, Timezone: "Asia/Tokyo"})
	require.NoError(t, err)
	_, err = st.UpsertUserPreference(ctx, &store.UpsertUserPreference{UserID: 42, Timezone: "Europe/London"})
	require.NoError(t, err)

	pref, err = st.GetUserPreference(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, "Europe/London", pref.Timezone)
}
