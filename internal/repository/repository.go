package repository

import (
	"context"
	"database/sql"
	"time"
)

// ErrNoRows is returned when a query targets a row that does not exist.
var ErrNoRows = sql.ErrNoRows

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all database access. Create one per database with New,
// or per transaction with WithTx.
type Queries struct {
	db       DBTX
	notifier *Notifier

	// pending buffers change notifications on a transactional Queries
	// until Flush. Nil outside a transaction.
	pending map[Table]struct{}
}

// New creates a Queries instance backed by db.
func New(db DBTX) *Queries {
	return &Queries{db: db, notifier: NewNotifier()}
}

// WithTx returns a Queries instance that runs against tx. Change
// notifications for writes made through it are buffered, not published:
// call Flush after tx commits. A rolled-back transaction that is never
// flushed emits nothing, so watchers only ever observe committed state.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, notifier: q.notifier, pending: make(map[Table]struct{})}
}

// Flush publishes the notifications buffered by a transactional Queries.
// No-op on a non-transactional Queries.
func (q *Queries) Flush() {
	for table := range q.pending {
		delete(q.pending, table)
		q.notifier.Notify(table)
	}
}

// notify publishes a table change immediately, or buffers it when running
// inside a transaction.
func (q *Queries) notify(table Table) {
	if q.pending != nil {
		q.pending[table] = struct{}{}
		return
	}
	q.notifier.Notify(table)
}

// Notifier exposes the change notifier for watch subscriptions.
func (q *Queries) Notifier() *Notifier {
	return q.notifier
}

// timeFormat is the canonical timestamp encoding in the database.
const timeFormat = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
