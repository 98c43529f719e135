package repo

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// initOnce runs an initialization step until it succeeds once. Concurrent
// callers share a single in-flight attempt; failed attempts are retried by the
// next caller.
type initOnce struct {
	done  atomic.Bool
	group singleflight.Group
}

func (o *initOnce) Do(ctx context.Context, fn func(context.Context) error) error {
	if o.done.Load() {
		return nil
	}
	_, err, _ := o.group.Do("init", func() (any, error) {
		if o.done.Load() {
			return nil, nil
		}
		if err := fn(ctx); err != nil {
			return nil, err
		}
		o.done.Store(true)
		return nil, nil
	})
	return err
}
