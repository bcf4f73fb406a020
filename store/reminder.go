package store

// Status is the lifecycle state of a reminder.
type Status string

const (
	// StatusActive marks a reminder that has not yet been dispatched.
	StatusActive Status = "active"
	// StatusCompleted marks a reminder that was delivered or retired.
	StatusCompleted Status = "completed"
	// StatusCancelled marks a reminder cancelled by its owner.
	StatusCancelled Status = "cancelled"
)

// Cadence is the recurrence period of a reminder. Empty means one-shot.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Reminder represents a user-scheduled notification. Instants are stored as
// unix seconds, always UTC.
type Reminder struct {
	ID              int32
	UID             string
	OwnerID         int64
	OriginChannelID *int64
	Body            string
	DueTs           int64
	CreatedTs       int64
	CompletedTs     *int64
	// Timezone is the canonical zone the reminder was created under, kept
	// for display formatting.
	Timezone string
	Status   Status
	Cadence  Cadence
}

// IsRecurring reports whether the reminder advances instead of completing.
func (r *Reminder) IsRecurring() bool {
	return r.Cadence == CadenceDaily || r.Cadence == CadenceWeekly
}

// FindReminder specifies the conditions for finding reminders.
type FindReminder struct {
	ID        *int32
	UID       *string
	OwnerID   *int64
	Status    *Status
	DueBefore *int64
	Limit     *int
	Offset    *int
}
