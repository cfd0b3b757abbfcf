package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"ratesync/internal/library"
	"ratesync/internal/outcome"
	"ratesync/internal/ratings"
)

// runParallel fans records out over a fixed worker pool. Each worker owns a
// private summary so no counter is shared while workers run; the locals are
// merged by summation once the pool drains. Log ordering across workers is
// not guaranteed; aggregated counts are exact.
func (e *Engine) runParallel(ctx context.Context, resolver *library.Resolver, records []ratings.Record, summary *outcome.Summary, alreadyDone, total int) {
	jobs := make(chan ratings.Record)
	locals := make([]*outcome.Summary, e.opts.Workers)

	var completed atomic.Int64
	completed.Store(int64(alreadyDone))

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		local := &outcome.Summary{}
		locals[i] = local
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				result := e.process(ctx, resolver, record)
				local.Record(result)
				e.logOutcome(result)
				if e.opts.Progress != nil {
					e.opts.Progress(int(completed.Add(1)), total)
				}
			}
		}()
	}

	for _, record := range records {
		jobs <- record
	}
	close(jobs)
	wg.Wait()

	for _, local := range locals {
		summary.Merge(local)
	}
}
