package pipeline

import (
	"context"

	"github.com/ppiankov/vacdash/internal/worker"
)

// pageJob fetches and decodes one page
type pageJob struct {
	fetcher *Fetcher
	page    int
}

// Execute runs the page fetch
func (j *pageJob) Execute(ctx context.Context) worker.Result {
	body, err := j.fetcher.FetchPage(ctx, j.page)
	if err != nil {
		return &pageResult{Page: j.page, Err: err}
	}
	items, err := DecodeItems(body)
	if err != nil {
		return &pageResult{Page: j.page, Err: err}
	}
	return &pageResult{Page: j.page, Body: body, Items: len(items)}
}

// pageResult is the outcome of a pageJob
type pageResult struct {
	Page  int
	Body  []byte
	Items int
	Err   error
}

// GetError returns the fetch or decode error
func (r *pageResult) GetError() error {
	return r.Err
}

// fetchPages returns the raw bodies of the data set. With maxPages <= 1 this
// is the single configured page. Otherwise pages are fetched concurrently and
// the set ends at the first page holding fewer than PageSize items.
func fetchPages(ctx context.Context, f *Fetcher, pool *worker.Pool, maxPages int) ([][]byte, error) {
	first := f.FirstPage()
	if maxPages <= 1 {
		body, err := f.FetchPage(ctx, first)
		if err != nil {
			return nil, err
		}
		return [][]byte{body}, nil
	}

	jobs := make([]worker.Job, maxPages)
	for i := range jobs {
		jobs[i] = &pageJob{fetcher: f, page: first + i}
	}

	results := pool.Run(ctx, jobs)
	end := len(results)
	for i, r := range results {
		if pr, ok := r.(*pageResult); ok && pr.Err == nil && pr.Items < f.PageSize() {
			end = i + 1
			break
		}
	}
	results = results[:end]

	if err := worker.FirstError(results); err != nil {
		if !IsFatal(err) {
			err = &NetworkError{URL: f.api.BaseURL, Err: err}
		}
		return nil, err
	}

	bodies := make([][]byte, 0, len(results))
	for _, r := range results {
		bodies = append(bodies, r.(*pageResult).Body)
	}
	return bodies, nil
}
