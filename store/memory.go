package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryDriver is an in-memory implementation of Driver, used by tests and
// demo mode. All guarded transitions hold the same mutex, so they are atomic
// with respect to each other like their SQL counterparts.
type MemoryDriver struct {
	mu          sync.Mutex
	nextID      int32
	reminders   map[int32]*Reminder
	preferences map[int64]*UserPreference
}

// NewMemoryDriver creates a new in-memory store driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		nextID:      1,
		reminders:   make(map[int32]*Reminder),
		preferences: make(map[int64]*UserPreference),
	}
}

func (d *MemoryDriver) GetDB() *sql.DB {
	return nil
}

func (d *MemoryDriver) Close() error {
	return nil
}

func (d *MemoryDriver) IsInitialized(_ context.Context) (bool, error) {
	return true, nil
}

func (d *MemoryDriver) CreateReminder(_ context.Context, create *Reminder) (*Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clone := *create
	clone.ID = d.nextID
	d.nextID++
	if clone.CreatedTs == 0 {
		clone.CreatedTs = time.Now().Unix()
	}
	if clone.Status == "" {
		clone.Status = StatusActive
	}
	d.reminders[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (d *MemoryDriver) ListReminders(_ context.Context, find *FindReminder) ([]*Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := make([]*Reminder, 0)
	for _, r := range d.reminders {
		if v := find.ID; v != nil && r.ID != *v {
			continue
		}
		if v := find.UID; v != nil && r.UID != *v {
			continue
		}
		if v := find.OwnerID; v != nil && r.OwnerID != *v {
			continue
		}
		if v := find.Status; v != nil && r.Status != *v {
			continue
		}
		if v := find.DueBefore; v != nil && r.DueTs > *v {
			continue
		}
		clone := *r
		list = append(list, &clone)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].DueTs != list[j].DueTs {
			return list[i].DueTs < list[j].DueTs
		}
		return list[i].ID < list[j].ID
	})

	offset := 0
	if find.Offset != nil {
		offset = *find.Offset
	}
	if offset > len(list) {
		offset = len(list)
	}
	list = list[offset:]
	if find.Limit != nil && *find.Limit < len(list) {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *MemoryDriver) CompleteReminder(_ context.Context, id int32, completedTs int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.reminders[id]
	if !ok || r.Status != StatusActive {
		return false, nil
	}
	r.Status = StatusCompleted
	r.CompletedTs = &completedTs
	return true, nil
}

func (d *MemoryDriver) CancelReminder(_ context.Context, id int32, ownerID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.reminders[id]
	if !ok || r.OwnerID != ownerID || r.Status != StatusActive {
		return false, nil
	}
	// Stamped like the SQL drivers, so the janitor ages cancelled records
	// from cancellation time.
	cancelledTs := time.Now().Unix()
	r.Status = StatusCancelled
	r.CompletedTs = &cancelledTs
	return true, nil
}

func (d *MemoryDriver) RescheduleReminder(_ context.Context, id int32, newDueTs int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.reminders[id]
	if !ok || r.Status != StatusActive {
		return false, nil
	}
	r.DueTs = newDueTs
	return true, nil
}

func (d *MemoryDriver) CountActiveReminders(_ context.Context, ownerID int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	for _, r := range d.reminders {
		if r.OwnerID == ownerID && r.Status == StatusActive {
			count++
		}
	}
	return count, nil
}

func (d *MemoryDriver) ListActiveOwners(_ context.Context) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[int64]struct{})
	owners := make([]int64, 0)
	for _, r := range d.reminders {
		if r.Status != StatusActive {
			continue
		}
		if _, ok := seen[r.OwnerID]; ok {
			continue
		}
		seen[r.OwnerID] = struct{}{}
		owners = append(owners, r.OwnerID)
	}
	return owners, nil
}

func (d *MemoryDriver) PurgeTerminalReminders(_ context.Context, olderThanTs int64) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var purged int64
	for id, r := range d.reminders {
		if r.Status == StatusActive {
			continue
		}
		terminalTs := r.CreatedTs
		if r.CompletedTs != nil {
			terminalTs = *r.CompletedTs
		}
		if terminalTs < olderThanTs {
			delete(d.reminders, id)
			purged++
		}
	}
	return purged, nil
}

func (d *MemoryDriver) UpsertUserPreference(_ context.Context, upsert *UpsertUserPreference) (*UserPreference, error) {
	if upsert.Timezone == "" {
		return nil, errors.New("timezone must not be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pref := &UserPreference{
		UserID:    upsert.UserID,
		Timezone:  upsert.Timezone,
		UpdatedTs: time.Now().Unix(),
	}
	d.preferences[upsert.UserID] = pref

	clone := *pref
	return &clone, nil
}

func (d *MemoryDriver) GetUserPreference(_ context.Context, userID int64) (*UserPreference, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pref, ok := d.preferences[userID]
	if !ok {
		return nil, nil
	}
	clone := *pref
	return &clone, nil
}
