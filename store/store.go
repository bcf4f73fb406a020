package store

import (
	"context"

	"github.com/hearthbot/remindd/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, create)
}

func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

// GetReminder returns the reminder with the given id, or nil when absent.
func (s *Store) GetReminder(ctx context.Context, id int32) (*Reminder, error) {
	list, err := s.driver.ListReminders(ctx, &FindReminder{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// PollDue returns active reminders due at or before nowTs, earliest first,
// bounded by batch.
func (s *Store) PollDue(ctx context.Context, nowTs int64, batch int) ([]*Reminder, error) {
	status := StatusActive
	return s.driver.ListReminders(ctx, &FindReminder{
		Status:    &status,
		DueBefore: &nowTs,
		Limit:     &batch,
	})
}

func (s *Store) CompleteReminder(ctx context.Context, id int32, completedTs int64) (bool, error) {
	return s.driver.CompleteReminder(ctx, id, completedTs)
}

func (s *Store) CancelReminder(ctx context.Context, id int32, ownerID int64) (bool, error) {
	return s.driver.CancelReminder(ctx, id, ownerID)
}

func (s *Store) RescheduleReminder(ctx context.Context, id int32, newDueTs int64) (bool, error) {
	return s.driver.RescheduleReminder(ctx, id, newDueTs)
}

func (s *Store) CountActiveReminders(ctx context.Context, ownerID int64) (int, error) {
	return s.driver.CountActiveReminders(ctx, ownerID)
}

func (s *Store) ListActiveOwners(ctx context.Context) ([]int64, error) {
	return s.driver.ListActiveOwners(ctx)
}

func (s *Store) PurgeTerminalReminders(ctx context.Context, olderThanTs int64) (int64, error) {
	return s.driver.PurgeTerminalReminders(ctx, olderThanTs)
}

func (s *Store) UpsertUserPreference(ctx context.Context, upsert *UpsertUserPreference) (*UserPreference, error) {
	return s.driver.UpsertUserPreference(ctx, upsert)
}

func (s *Store) GetUserPreference(ctx context.Context, userID int64) (*UserPreference, error) {
	return s.driver.GetUserPreference(ctx, userID)
}
