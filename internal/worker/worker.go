// Package worker runs independent jobs with bounded, unordered
// concurrency.
package worker

import (
	"context"
	"sync"
)

type RunOptions[J any] struct {
	Ctx     context.Context
	Workers int
	Jobs    []J
	Handle  func(context.Context, J)
}

// Run processes every job and blocks until all started jobs finish. At most
// Workers jobs run at once. When ctx is canceled, no further jobs start;
// in-flight jobs run to completion.
func Run[J any](opts RunOptions[J]) {
	if opts.Handle == nil {
		return
	}
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, job := range opts.Jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(j J) {
			defer func() {
				<-sem
				wg.Done()
			}()
			opts.Handle(ctx, j)
		}(job)
	}
	wg.Wait()
}
