package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthbot/remindd/store"
)

func (d *DB) UpsertUserPreference(ctx context.Context, upsert *store.UpsertUserPreference) (*store.UserPreference, error) {
	pref := &store.UserPreference{
		UserID:   upsert.UserID,
		Timezone: upsert.Timezone,
	}

	stmt := `INSERT INTO user_preference (user_id, timezone, updated_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET timezone = EXCLUDED.timezone, updated_ts = EXCLUDED.updated_ts
		RETURNING updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, upsert.UserID, upsert.Timezone, time.Now().Unix()).Scan(
		&pref.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert user preference: %w", err)
	}

	return pref, nil
}

func (d *DB) GetUserPreference(ctx context.Context, userID int64) (*store.UserPreference, error) {
	pref := &store.UserPreference{}
	if err := d.db.QueryRowContext(ctx,
		`SELECT user_id, timezone, updated_ts FROM user_preference WHERE user_id = $1`,
		userID,
	).Scan(&pref.UserID, &pref.Timezone, &pref.UpdatedTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user preference: %w", err)
	}
	return pref, nil
}
