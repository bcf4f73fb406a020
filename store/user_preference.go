package store

// UserPreference represents a user's stored timezone preference.
// One record per user; absence means UTC.
type UserPreference struct {
	UserID    int64
	Timezone  string
	UpdatedTs int64
}

// UpsertUserPreference specifies the data for upserting a user preference.
type UpsertUserPreference struct {
	UserID   int64
	Timezone string
}
