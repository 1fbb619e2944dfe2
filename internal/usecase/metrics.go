package usecase

import (
	"errors"
	"sync"
	"time"

	"github.com/example/deepfake-verifier/internal/models"
)

// MetricsSummary represents aggregated analysis insights for this process.
type MetricsSummary struct {
	TotalRuns                int64               `json:"total_runs"`
	SuccessfulRuns           int64               `json:"successful_runs"`
	SuccessRate              float64             `json:"success_rate"`
	ManipulationLikelyRuns   int64               `json:"manipulation_likely_runs"`
	AverageConfidencePercent float64             `json:"average_confidence_percent"`
	AverageLatencyMs         float64             `json:"average_latency_ms"`
	FailuresByKind           map[ErrorKind]int64 `json:"failures_by_kind,omitempty"`
}

type metricsRecorder struct {
	mu             sync.Mutex
	total          int64
	successful     int64
	likely         int64
	confidenceSum  float64
	latencySumMs   float64
	failuresByKind map[ErrorKind]int64
}

func (m *metricsRecorder) record(res Result, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.latencySumMs += float64(latency) / float64(time.Millisecond)

	if res.Err != nil {
		kind := KindUnexpected
		var aerr *AnalysisError
		if errors.As(res.Err, &aerr) {
			kind = aerr.Kind
		}
		if m.failuresByKind == nil {
			m.failuresByKind = make(map[ErrorKind]int64)
		}
		m.failuresByKind[kind]++
		return
	}

	m.successful++
	if res.Verdict != nil {
		m.confidenceSum += res.Verdict.ConfidencePercent
		if res.Verdict.Label == models.ManipulationLikely {
			m.likely++
		}
	}
}

// GetMetricsSummary aggregates the outcomes of the runs completed so far.
func (uc *AnalysisUseCase) GetMetricsSummary() *MetricsSummary {
	m := &uc.metrics
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := &MetricsSummary{
		TotalRuns:              m.total,
		SuccessfulRuns:         m.successful,
		ManipulationLikelyRuns: m.likely,
	}
	if m.total > 0 {
		summary.SuccessRate = float64(m.successful) / float64(m.total)
		summary.AverageLatencyMs = m.latencySumMs / float64(m.total)
	}
	if m.successful > 0 {
		summary.AverageConfidencePercent = m.confidenceSum / float64(m.successful)
	}
	if len(m.failuresByKind) > 0 {
		summary.FailuresByKind = make(map[ErrorKind]int64, len(m.failuresByKind))
		for k, v := range m.failuresByKind {
			summary.FailuresByKind[k] = v
		}
	}
	return summary
}
