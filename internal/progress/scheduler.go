// Package progress emits the cosmetic progress markers shown during an analysis.
// The markers never drive the analysis state.
package progress

import (
	"sync"
	"time"

	"github.com/example/deepfake-verifier/internal/models"
)

// Step is a marker and the delay after start at which it is emitted.
type Step struct {
	Marker models.ProgressMarker
	After  time.Duration
}

// Scheduler emits a fixed, ordered sequence of steps.
type Scheduler struct {
	steps []Step
}

// NewScheduler builds the default three-step schedule.
func NewScheduler(detectingFacesAfter, analyzingAfter time.Duration) *Scheduler {
	return NewSchedulerWithSteps([]Step{
		{Marker: models.ProgressUploading},
		{Marker: models.ProgressDetectingFaces, After: detectingFacesAfter},
		{Marker: models.ProgressAnalyzing, After: analyzingAfter},
	})
}

// NewSchedulerWithSteps builds a scheduler from explicit steps. Steps whose
// delay or marker would regress are skipped.
func NewSchedulerWithSteps(steps []Step) *Scheduler {
	var ordered []Step
	for _, s := range steps {
		if n := len(ordered); n > 0 {
			last := ordered[n-1]
			if s.After < last.After || s.Marker < last.Marker {
				continue
			}
		}
		ordered = append(ordered, s)
	}
	return &Scheduler{steps: ordered}
}

// Ticker is one running schedule.
type Ticker struct {
	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// Start begins emitting markers to emit on a separate goroutine.
func (s *Scheduler) Start(emit func(models.ProgressMarker)) *Ticker {
	t := &Ticker{stop: make(chan struct{}), done: make(chan struct{})}
	go t.run(s.steps, emit)
	return t
}

func (t *Ticker) run(steps []Step, emit func(models.ProgressMarker)) {
	defer close(t.done)
	start := time.Now()
	for _, step := range steps {
		if wait := step.After - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-t.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if !t.emit(step.Marker, emit) {
			return
		}
	}
}

func (t *Ticker) emit(marker models.ProgressMarker, emit func(models.ProgressMarker)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	emit(marker)
	return true
}

// Stop cancels the remaining steps. When it returns no further marker will
// be emitted. Stop is safe to call more than once.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		close(t.stop)
	}
	t.mu.Unlock()
	<-t.done
}
