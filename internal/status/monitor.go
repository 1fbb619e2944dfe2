// Package status probes the inference service's health endpoint.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/logging"
	"github.com/example/deepfake-verifier/internal/models"
)

// Monitor tracks the best-effort liveness of the inference service. Failing to
// verify liveness yields Unknown, never an offline verdict: the predict call
// may still succeed when the probe cannot.
type Monitor struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.RWMutex
	status   models.BackendStatus
	info     *models.BackendInfo
	onChange func(models.BackendStatus, *models.BackendInfo)
}

// NewMonitor creates a monitor in the Checking state.
func NewMonitor(endpoint string, timeout time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.Named("status_monitor"),
		status:     models.BackendChecking,
	}
}

// OnChange registers the indicator callback fired after every probe.
func (m *Monitor) OnChange(fn func(models.BackendStatus, *models.BackendInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Status returns the last known status and details.
func (m *Monitor) Status() (models.BackendStatus, *models.BackendInfo) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.info
}

// Probe issues one bounded liveness request and records the outcome.
func (m *Monitor) Probe(ctx context.Context) models.BackendStatus {
	opLogger := logging.WithOperation(m.logger, "status.probe", "")

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status, info, err := m.check(ctx)
	if err != nil {
		opLogger.Info("backend liveness unknown", zap.String("endpoint", m.endpoint), zap.Error(err))
	} else {
		opLogger.Info("backend online", zap.String("endpoint", m.endpoint))
	}

	m.mu.Lock()
	m.status, m.info = status, info
	notify := m.onChange
	m.mu.Unlock()

	if notify != nil {
		notify(status, info)
	}
	return status
}

func (m *Monitor) check(ctx context.Context) (models.BackendStatus, *models.BackendInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint, nil)
	if err != nil {
		return models.BackendUnknown, nil, logging.NewOperationError("status.build_request", "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return models.BackendUnknown, nil, logging.NewOperationError("status.request", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.BackendUnknown, nil, logging.NewOperationError("status.request", "", &statusCodeError{code: resp.StatusCode})
	}

	var info models.BackendInfo
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || json.Unmarshal(body, &info) != nil {
		return models.BackendOnline, nil, nil
	}
	return models.BackendOnline, &info, nil
}

type statusCodeError struct {
	code int
}

func (e *statusCodeError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}
