package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a bounded number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency limit
func (p *Pool) Workers() int { return p.workers }

// Run executes jobs and returns their results in submission order.
// Jobs still queued when ctx is cancelled are not started; their slot
// holds a result carrying ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = jobs[i].Execute(ctx)
			}
		}()
	}

	for i := range jobs {
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case queue <- i:
				continue
			}
		}
		for j := i; j < len(jobs); j++ {
			results[j] = &errResult{err: ctx.Err()}
		}
		break
	}
	close(queue)
	wg.Wait()

	return results
}

// FirstError returns the error of the earliest failed result, or nil
func FirstError(results []Result) error {
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := r.GetError(); err != nil {
			return err
		}
	}
	return nil
}

type errResult struct {
	err error
}

func (r *errResult) GetError() error { return r.err }
