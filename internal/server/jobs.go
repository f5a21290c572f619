package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// jobRunner runs at most one collection at a time in the background.
type jobRunner struct {
	run func(ctx context.Context, id string)

	mu      sync.Mutex
	base    context.Context
	current string
	wg      sync.WaitGroup
}

func newJobRunner(run func(ctx context.Context, id string)) *jobRunner {
	return &jobRunner{run: run, base: context.Background()}
}

// setBase sets the context new jobs derive from.
func (j *jobRunner) setBase(ctx context.Context) {
	j.mu.Lock()
	j.base = ctx
	j.mu.Unlock()
}

// start launches a job unless one is running. It returns the id of the job
// that is now running and whether this call started it.
func (j *jobRunner) start() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current != "" {
		return j.current, false
	}

	id := uuid.New().String()
	j.current = id
	ctx := j.base

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer j.finish(id)
		j.run(ctx, id)
	}()
	return id, true
}

func (j *jobRunner) finish(id string) {
	j.mu.Lock()
	if j.current == id {
		j.current = ""
	}
	j.mu.Unlock()
}

// running returns the active job id, or "".
func (j *jobRunner) running() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// wait blocks until every started job has returned.
func (j *jobRunner) wait() {
	j.wg.Wait()
}
