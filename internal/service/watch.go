package service

import (
	"context"

	"github.com/quayside/steelinspect/internal/repository"
)

// watch runs query once immediately, then again after every change to the
// subscribed tables, sending each result to the returned channel. Results
// that fail to compute are dropped. The channel is closed when ctx is done.
//
// Sends do not block: if the receiver has not consumed the previous result
// it is replaced by the newer one.
func watch[T any](
	ctx context.Context,
	notifier *repository.Notifier,
	tables []repository.Table,
	query func(ctx context.Context) (T, error),
) (<-chan T, error) {
	first, err := query(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan T, 1)
	out <- first

	changes := notifier.Subscribe(ctx, tables...)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				result, err := query(ctx)
				if err != nil {
					continue
				}
				select {
				case out <- result:
				default:
					// Drop the stale pending result, keep the fresh one
					select {
					case <-out:
					default:
					}
					out <- result
				}
			}
		}
	}()

	return out, nil
}
