package repository

import (
	"context"
	"time"
)

// ChecklistItem mirrors one row of the checklist_items table.
type ChecklistItem struct {
	ID            string
	Category      string
	Question      string
	InputType     string
	Options       string
	IsRequired    bool
	SequenceOrder int64
	IsActive      bool
}

// ChecklistResponse mirrors one row of the checklist_responses table.
type ChecklistResponse struct {
	ID              string
	InspectionID    string
	ChecklistItemID string
	ResponseValue   string
	ResponseNotes   string
	CreatedAt       time.Time
}

func (q *Queries) ListChecklistItems(ctx context.Context, category string) ([]ChecklistItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, category, question, input_type, options, is_required, sequence_order, is_active
		FROM checklist_items
		WHERE is_active = 1 AND (? = '' OR category = ?)
		ORDER BY category ASC, sequence_order ASC`, category, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		err := rows.Scan(
			&item.ID, &item.Category, &item.Question, &item.InputType,
			&item.Options, &item.IsRequired, &item.SequenceOrder, &item.IsActive,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) GetChecklistItem(ctx context.Context, id string) (ChecklistItem, error) {
	var item ChecklistItem
	err := q.db.QueryRowContext(ctx, `
		SELECT id, category, question, input_type, options, is_required, sequence_order, is_active
		FROM checklist_items WHERE id = ?`, id).Scan(
		&item.ID, &item.Category, &item.Question, &item.InputType,
		&item.Options, &item.IsRequired, &item.SequenceOrder, &item.IsActive,
	)
	return item, err
}

// UpsertResponseParams records or replaces an answer for one
// (inspection, item) pair.
type UpsertResponseParams struct {
	ID              string
	InspectionID    string
	ChecklistItemID string
	ResponseValue   string
	ResponseNotes   string
	CreatedAt       time.Time
}

func (q *Queries) UpsertChecklistResponse(ctx context.Context, params UpsertResponseParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO checklist_responses (id, inspection_id, checklist_item_id, response_value, response_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (inspection_id, checklist_item_id) DO UPDATE SET
			response_value = excluded.response_value,
			response_notes = excluded.response_notes`,
		params.ID, params.InspectionID, params.ChecklistItemID,
		params.ResponseValue, params.ResponseNotes, formatTime(params.CreatedAt),
	)
	if err != nil {
		return err
	}
	q.notify(TableChecklistResponses)
	return nil
}

func (q *Queries) ListResponsesByInspection(ctx context.Context, inspectionID string) ([]ChecklistResponse, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, inspection_id, checklist_item_id, response_value, response_notes, created_at
		FROM checklist_responses
		WHERE inspection_id = ?
		ORDER BY created_at ASC, id ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []ChecklistResponse
	for rows.Next() {
		var (
			r         ChecklistResponse
			createdAt string
		)
		err := rows.Scan(
			&r.ID, &r.InspectionID, &r.ChecklistItemID,
			&r.ResponseValue, &r.ResponseNotes, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// CountMissingRequiredResponses reports how many active required checklist
// items have no response for the inspection.
func (q *Queries) CountMissingRequiredResponses(ctx context.Context, inspectionID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checklist_items ci
		WHERE ci.is_active = 1 AND ci.is_required = 1
		  AND NOT EXISTS (
			SELECT 1 FROM checklist_responses cr
			WHERE cr.checklist_item_id = ci.id AND cr.inspection_id = ?
		  )`, inspectionID).Scan(&count)
	return count, err
}
