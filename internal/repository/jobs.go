package repository

import (
	"context"
	"database/sql"
	"time"
)

// Job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job mirrors one row of the jobs table.
type Job struct {
	ID          string
	JobType     string
	Payload     []byte
	Status      string
	Priority    int64
	Attempts    int64
	MaxAttempts int64
	LastError   string
	ScheduledAt time.Time
	CreatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

const jobColumns = `
	id, job_type, payload, status, priority, attempts, max_attempts,
	last_error, scheduled_at, created_at, started_at, finished_at`

func scanJob(row rowScanner) (Job, error) {
	var (
		j                      Job
		payload                string
		scheduledAt, createdAt string
		startedAt, finishedAt  sql.NullString
	)
	err := row.Scan(
		&j.ID, &j.JobType, &payload, &j.Status, &j.Priority,
		&j.Attempts, &j.MaxAttempts, &j.LastError,
		&scheduledAt, &createdAt, &startedAt, &finishedAt,
	)
	if err != nil {
		return Job{}, err
	}
	j.Payload = []byte(payload)
	j.ScheduledAt = parseTime(scheduledAt)
	j.CreatedAt = parseTime(createdAt)
	j.StartedAt = parseNullTime(startedAt)
	j.FinishedAt = parseNullTime(finishedAt)
	return j, nil
}

// EnqueueJobParams describes a job to enqueue.
type EnqueueJobParams struct {
	ID          string
	JobType     string
	Payload     []byte
	Priority    int64
	MaxAttempts int64
	ScheduledAt time.Time
	CreatedAt   time.Time
}

func (q *Queries) EnqueueJob(ctx context.Context, params EnqueueJobParams) (Job, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO jobs (id, job_type, payload, status, priority, attempts, max_attempts, scheduled_at, created_at)
		VALUES (?, ?, ?, 'pending', ?, 0, ?, ?, ?)`,
		params.ID, params.JobType, string(params.Payload), params.Priority,
		params.MaxAttempts, formatTime(params.ScheduledAt), formatTime(params.CreatedAt),
	)
	if err != nil {
		return Job{}, err
	}
	return q.GetJob(ctx, params.ID)
}

func (q *Queries) GetJob(ctx context.Context, id string) (Job, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// DequeueJob returns the highest-priority due pending job, oldest first.
// Returns sql.ErrNoRows when nothing is due. Run inside a transaction
// together with UpdateJobStarted.
func (q *Queries) DequeueJob(ctx context.Context, now time.Time) (Job, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+jobColumns+` FROM jobs
		WHERE status = 'pending' AND scheduled_at <= ?
		ORDER BY priority DESC, scheduled_at ASC
		LIMIT 1`, formatTime(now))
	return scanJob(row)
}

func (q *Queries) UpdateJobStarted(ctx context.Context, id string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'running', attempts = attempts + 1, started_at = ?
		WHERE id = ?`, formatTime(now), id)
	return err
}

func (q *Queries) UpdateJobCompleted(ctx context.Context, id string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'completed', finished_at = ?
		WHERE id = ?`, formatTime(now), id)
	return err
}

// UpdateJobFailedParams records a failure. When Reschedule is set the job
// goes back to pending with a new scheduled_at, otherwise it is failed
// permanently.
type UpdateJobFailedParams struct {
	ID          string
	LastError   string
	Reschedule  bool
	ScheduledAt time.Time
	FinishedAt  time.Time
}

func (q *Queries) UpdateJobFailed(ctx context.Context, params UpdateJobFailedParams) error {
	if params.Reschedule {
		_, err := q.db.ExecContext(ctx, `
			UPDATE jobs SET status = 'pending', last_error = ?, scheduled_at = ?, started_at = NULL
			WHERE id = ?`,
			params.LastError, formatTime(params.ScheduledAt), params.ID)
		return err
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'failed', last_error = ?, finished_at = ?
		WHERE id = ?`,
		params.LastError, formatTime(params.FinishedAt), params.ID)
	return err
}

// RecoverStaleJobs resets running jobs whose start time is older than the
// threshold back to pending. Handles worker crashes.
func (q *Queries) RecoverStaleJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'pending', started_at = NULL
		WHERE status = 'running' AND started_at < ?`, formatTime(olderThan))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PruneFinishedJobs deletes completed and failed jobs finished before the
// cutoff.
func (q *Queries) PruneFinishedJobs(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE status IN ('completed', 'failed') AND finished_at < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
