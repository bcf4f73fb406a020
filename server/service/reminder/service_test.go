package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errcode "github.com/hearthbot/remindd/internal/errors"
	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/server/timeparse"
	"github.com/hearthbot/remindd/server/timezone"
	"github.com/hearthbot/remindd/store"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	p := newTestProfile(t)
	st := store.New(store.NewMemoryDriver(), p)
	registry := timezone.NewRegistry(st)
	parser := timeparse.NewParserAt(func() time.Time { return fixedNow })
	svc := NewService(p, st, registry, parser, observability.NewMetrics())
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func TestCreateTimezoneAware(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SetTimezone(ctx, 42, "America/La_Paz")
	require.NoError(t, err)

	origin := int64(1001)
	created, err := svc.Create(ctx, &CreateRequest{
		OwnerID:         42,
		Phrase:          "in 3 hours",
		Body:            "water the plants",
		OriginChannelID: &origin,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(3*time.Hour).Unix(), created.DueTs)
	assert.Equal(t, "America/La_Paz", created.Timezone)
	assert.Equal(t, store.StatusActive, created.Status)
	assert.NotEmpty(t, created.UID)
	require.NotNil(t, created.OriginChannelID)
	assert.Equal(t, origin, *created.OriginChannelID)
}

func TestCreateUsesResidueAsBody(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &CreateRequest{
		OwnerID: 42,
		Phrase:  "in 10 minutes check the oven",
	})
	require.NoError(t, err)
	assert.Equal(t, "check the oven", created.Body)
}

func TestCreateQuota(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	for i := 0; i < svc.profile.MaxUserReminders; i++ {
		_, err := st.CreateReminder(ctx, &store.Reminder{
			UID:       strings.Repeat("x", i+1),
			OwnerID:   42,
			Body:      "pending",
			DueTs:     fixedNow.Add(time.Hour).Unix(),
			CreatedTs: fixedNow.Unix(),
			Timezone:  "UTC",
			Status:    store.StatusActive,
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "foo"})
	require.Error(t, err)
	assert.Equal(t, errcode.CodeQuotaExceeded, errcode.CodeOf(err))

	count, err := st.CountActiveReminders(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, svc.profile.MaxUserReminders, count)

	// Another owner is unaffected.
	_, err = svc.Create(ctx, &CreateRequest{OwnerID: 7, Phrase: "in 1 hour", Body: "bar"})
	require.NoError(t, err)
}

func TestCreateQuotaUnderConcurrentCreates(t *testing.T) {
	// One slot left and several simultaneous creates: exactly one may win,
	// the rest see the quota, and the active count never exceeds the limit.
	ctx := context.Background()
	svc, st := newTestService(t)

	for i := 0; i < svc.profile.MaxUserReminders-1; i++ {
		_, err := st.CreateReminder(ctx, &store.Reminder{
			UID:       fmt.Sprintf("seed-%d", i),
			OwnerID:   42,
			Body:      "pending",
			DueTs:     fixedNow.Add(time.Hour).Unix(),
			CreatedTs: fixedNow.Unix(),
			Timezone:  "UTC",
			Status:    store.StatusActive,
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "race"})
			if err == nil {
				successes.Add(1)
				return
			}
			assert.Equal(t, errcode.CodeQuotaExceeded, errcode.CodeOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	count, err := st.CountActiveReminders(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, svc.profile.MaxUserReminders, count)
}

func TestCreateCooldown(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < svc.profile.CooldownRate; i++ {
		_, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "ok"})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "one too many"})
	require.Error(t, err)
	assert.Equal(t, errcode.CodeRateLimited, errcode.CodeOf(err))

	var svcErr *errcode.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Greater(t, svcErr.RetryAfter, time.Duration(0))
}

func TestCreateSanitizesBody(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &CreateRequest{
		OwnerID: 42,
		Phrase:  "in 1 hour",
		Body:    "review <script> ----- done",
	})
	require.NoError(t, err)
	assert.Equal(t, `review \<script\> -- done`, created.Body)
}

func TestCreateRejectsEmptyBody(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &CreateRequest{OwnerID: 42, Phrase: "in 1 hour"})
	require.Error(t, err)
	assert.Equal(t, errcode.CodeInvalidArgument, errcode.CodeOf(err))
}

func TestCreateBodyLength(t *testing.T) {
	svc, _ := newTestService(t)
	long := strings.Repeat("a", svc.profile.MaxReminderLength+1)

	_, err := svc.Create(context.Background(), &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: long})
	require.Error(t, err)
	assert.Equal(t, errcode.CodeInvalidArgument, errcode.CodeOf(err))

	svc.profile.TruncateLongBodies = true
	created, err := svc.Create(context.Background(), &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: long})
	require.NoError(t, err)
	assert.Len(t, created.Body, svc.profile.MaxReminderLength)
}

func TestListActiveOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 2 hours", Body: "later"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "sooner"})
	require.NoError(t, err)

	ok, err := svc.Cancel(ctx, 42, first.ID)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := svc.List(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestCancelIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	created, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "foo"})
	require.NoError(t, err)

	ok, err := svc.Cancel(ctx, 42, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// The second cancel finds a terminal record and reports false.
	ok, err = svc.Cancel(ctx, 42, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetReminder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCancelled, got.Status)
}

func TestCancelRequiresOwner(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	created, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "in 1 hour", Body: "foo"})
	require.NoError(t, err)

	ok, err := svc.Cancel(ctx, 7, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetReminder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, got.Status)
}

func TestDisplayRoundTrip(t *testing.T) {
	// A reminder created under a zone shows the same local wall time later.
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SetTimezone(ctx, 42, "japan")
	require.NoError(t, err)

	created, err := svc.Create(ctx, &CreateRequest{OwnerID: 42, Phrase: "2025-07-04 18:00", Body: "hanabi"})
	require.NoError(t, err)
	assert.Equal(t, "04 July 2025 18:00 JST (Friday - 18:00)", svc.FormatDue(created))
}
