// Package batch runs indexed work in fixed-size chunks. Items within a
// chunk execute concurrently and are awaited together; chunks execute
// strictly one after another, separated by a delay, which keeps the
// number of simultaneous outbound requests bounded.
package batch

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/sync/errgroup"
)

// Run invokes fn for every index in [0, n) in chunks of size. A nil
// clock selects the wall clock. fn is expected to isolate per-item
// failures itself; an error returned from fn aborts the whole run and
// is reserved for cancellation.
func Run(ctx context.Context, n, size int, delay time.Duration, c clock.Clock, fn func(i int) error) error {
	if c == nil {
		c = clock.New()
	}
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return fn(i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if end < n && delay > 0 {
			c.Sleep(delay)
		}
	}
	return nil
}
