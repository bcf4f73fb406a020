package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hearthbot/remindd/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	fields := []string{
		"uid", "owner_id", "origin_channel_id", "body",
		"due_ts", "timezone", "status", "cadence",
	}
	placeholderValues := []any{
		create.UID, create.OwnerID, create.OriginChannelID, create.Body,
		create.DueTs, create.Timezone, create.Status, create.Cadence,
	}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}

	stmt := `INSERT INTO reminder (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, status`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.Status,
	); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "reminder.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "reminder.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "reminder.owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "reminder.status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "reminder.due_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, owner_id, origin_channel_id, body,
			due_ts, created_ts, completed_ts, timezone, status, cadence
		FROM reminder
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY reminder.due_ts ASC, reminder.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		reminder := &store.Reminder{}
		var originChannelID, completedTs sql.NullInt64
		if err := rows.Scan(
			&reminder.ID,
			&reminder.UID,
			&reminder.OwnerID,
			&originChannelID,
			&reminder.Body,
			&reminder.DueTs,
			&reminder.CreatedTs,
			&completedTs,
			&reminder.Timezone,
			&reminder.Status,
			&reminder.Cadence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if originChannelID.Valid {
			reminder.OriginChannelID = &originChannelID.Int64
		}
		if completedTs.Valid {
			reminder.CompletedTs = &completedTs.Int64
		}
		list = append(list, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}

	return list, nil
}

func (d *DB) CompleteReminder(ctx context.Context, id int32, completedTs int64) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE reminder SET status = ?, completed_ts = ? WHERE id = ? AND status = ?`,
		store.StatusCompleted, completedTs, id, store.StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete reminder %d: %w", id, err)
	}
	return affected(result), nil
}

func (d *DB) CancelReminder(ctx context.Context, id int32, ownerID int64) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE reminder SET status = ?, completed_ts = ? WHERE id = ? AND owner_id = ? AND status = ?`,
		store.StatusCancelled, time.Now().Unix(), id, ownerID, store.StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel reminder %d: %w", id, err)
	}
	return affected(result), nil
}

func (d *DB) RescheduleReminder(ctx context.Context, id int32, newDueTs int64) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE reminder SET due_ts = ? WHERE id = ? AND status = ?`,
		newDueTs, id, store.StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule reminder %d: %w", id, err)
	}
	return affected(result), nil
}

func (d *DB) CountActiveReminders(ctx context.Context, ownerID int64) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminder WHERE owner_id = ? AND status = ?`,
		ownerID, store.StatusActive,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active reminders for owner %d: %w", ownerID, err)
	}
	return count, nil
}

func (d *DB) ListActiveOwners(ctx context.Context) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM reminder WHERE status = ?`,
		store.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active owners: %w", err)
	}
	defer rows.Close()

	owners := make([]int64, 0)
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, ownerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active owners: %w", err)
	}
	return owners, nil
}

func (d *DB) PurgeTerminalReminders(ctx context.Context, olderThanTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM reminder WHERE status != ? AND COALESCE(completed_ts, created_ts) < ?`,
		store.StatusActive, olderThanTs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge terminal reminders: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}
	return purged, nil
}

func affected(result sql.Result) bool {
	rows, err := result.RowsAffected()
	return err == nil && rows > 0
}
