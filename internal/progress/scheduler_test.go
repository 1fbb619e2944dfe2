package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/deepfake-verifier/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	markers []models.ProgressMarker
}

func (r *recorder) emit(m models.ProgressMarker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, m)
}

func (r *recorder) snapshot() []models.ProgressMarker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ProgressMarker(nil), r.markers...)
}

func TestTickerEmitsMarkersInOrder(t *testing.T) {
	rec := &recorder{}
	ticker := NewScheduler(5*time.Millisecond, 10*time.Millisecond).Start(rec.emit)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	ticker.Stop()

	assert.Equal(t, []models.ProgressMarker{
		models.ProgressUploading,
		models.ProgressDetectingFaces,
		models.ProgressAnalyzing,
	}, rec.snapshot())
}

func TestStopPreventsLaterMarkers(t *testing.T) {
	rec := &recorder{}
	ticker := NewScheduler(time.Hour, 2*time.Hour).Start(rec.emit)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	ticker.Stop()
	ticker.Stop()

	assert.Equal(t, []models.ProgressMarker{models.ProgressUploading}, rec.snapshot())
}

func TestStopBeforeFirstMarkerEmitsNothingAfterward(t *testing.T) {
	rec := &recorder{}
	ticker := NewSchedulerWithSteps([]Step{{Marker: models.ProgressUploading, After: time.Hour}}).Start(rec.emit)
	ticker.Stop()

	assert.Empty(t, rec.snapshot())
}

func TestScheduleDropsRegressingSteps(t *testing.T) {
	s := NewSchedulerWithSteps([]Step{
		{Marker: models.ProgressUploading},
		{Marker: models.ProgressAnalyzing, After: 10 * time.Millisecond},
		{Marker: models.ProgressDetectingFaces, After: 20 * time.Millisecond},
		{Marker: models.ProgressAnalyzing, After: 5 * time.Millisecond},
	})

	require.Len(t, s.steps, 2)
	assert.Equal(t, models.ProgressAnalyzing, s.steps[1].Marker)
}
