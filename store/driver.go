package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Reminder model related methods. Status transitions are conditional
	// single-statement updates; the bool result reports whether the guard
	// matched.
	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	CompleteReminder(ctx context.Context, id int32, completedTs int64) (bool, error)
	CancelReminder(ctx context.Context, id int32, ownerID int64) (bool, error)
	RescheduleReminder(ctx context.Context, id int32, newDueTs int64) (bool, error)
	CountActiveReminders(ctx context.Context, ownerID int64) (int, error)
	ListActiveOwners(ctx context.Context) ([]int64, error)
	PurgeTerminalReminders(ctx context.Context, olderThanTs int64) (int64, error)

	// UserPreference model related methods.
	UpsertUserPreference(ctx context.Context, upsert *UpsertUserPreference) (*UserPreference, error)
	// GetUserPreference returns nil when the user has no stored preference.
	GetUserPreference(ctx context.Context, userID int64) (*UserPreference, error)
}
