package usecase

import (
	"context"
	"time"

	"github.com/example/deepfake-verifier/internal/models"
)

// Result is the terminal outcome of a run.
type Result struct {
	Verdict *models.Verdict
	Gallery []models.Thumbnail
	Err     error
}

// Run is one submission cycle. Done closes after the use case is back to Idle.
type Run struct {
	ID        string
	FileName  string
	StartedAt time.Time

	done   chan struct{}
	result Result
}

func newRun(id, fileName string, startedAt time.Time) *Run {
	return &Run{ID: id, FileName: fileName, StartedAt: startedAt, done: make(chan struct{})}
}

// Done is closed once the run has finished and the surface was reset.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (r *Run) Result() Result {
	select {
	case <-r.done:
		return r.result
	default:
		return Result{}
	}
}

// Wait blocks until the run completes or ctx ends. Cancelling ctx only stops
// waiting; the run itself continues.
func (r *Run) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Run) complete(res Result) {
	r.result = res
	close(r.done)
}
