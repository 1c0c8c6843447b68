package repository

import (
	"context"
	"database/sql"
	"time"
)

// GetActiveInspectorID returns the inspector referenced by the settings row,
// or "" when none is set.
func (q *Queries) GetActiveInspectorID(ctx context.Context) (string, error) {
	var id sql.NullString
	err := q.db.QueryRowContext(ctx,
		`SELECT active_inspector_id FROM settings WHERE id = 1`).Scan(&id)
	if err != nil {
		return "", err
	}
	return id.String, nil
}

// SetActiveInspectorID points the settings row at the given inspector.
// Pass "" to clear the active inspector.
func (q *Queries) SetActiveInspectorID(ctx context.Context, inspectorID string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE settings SET active_inspector_id = ?, updated_at = ?
		WHERE id = 1`,
		nullableID(inspectorID), formatTime(updatedAt))
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}
