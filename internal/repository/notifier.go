package repository

import (
	"context"
	"sync"
)

// Table identifies a change-notification topic. One topic per mutable table.
type Table string

const (
	TableInspections        Table = "inspections"
	TableDefectRecords      Table = "defect_records"
	TablePhotos             Table = "photos"
	TableInspectors         Table = "inspectors"
	TableChecklistResponses Table = "checklist_responses"
)

// Notifier fans out table-change events to subscribers. Watch queries in the
// service layer subscribe, re-run their query on every event, and emit fresh
// results to their channel.
//
// Delivery is best-effort coalescing: a subscriber with a pending
// notification does not queue further ones, so a burst of writes yields at
// least one re-read, not one per write.
type Notifier struct {
	mu   sync.Mutex
	subs map[Table]map[chan struct{}]struct{}
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[Table]map[chan struct{}]struct{})}
}

// Subscribe registers interest in changes to the given tables. The returned
// channel receives a signal after each change. The subscription is removed
// when ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, tables ...Table) <-chan struct{} {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	for _, table := range tables {
		if n.subs[table] == nil {
			n.subs[table] = make(map[chan struct{}]struct{})
		}
		n.subs[table][ch] = struct{}{}
	}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		for _, table := range tables {
			delete(n.subs[table], ch)
		}
		n.mu.Unlock()
	}()

	return ch
}

// Notify signals all subscribers of the given table.
func (n *Notifier) Notify(table Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
