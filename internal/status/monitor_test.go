package status

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/models"
)

func TestMonitorStartsChecking(t *testing.T) {
	m := NewMonitor("http://127.0.0.1:1/health", time.Second, zap.NewNop())
	status, info := m.Status()
	assert.Equal(t, models.BackendChecking, status)
	assert.Nil(t, info)
}

func TestProbeOnlineDecodesInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{"status":"healthy","service":"deepfake-detection-api","version":"1.0.0","device":"cpu","model_loaded":true}`)
	}))
	defer srv.Close()

	var notified models.BackendStatus
	m := NewMonitor(srv.URL, time.Second, zap.NewNop())
	m.OnChange(func(s models.BackendStatus, _ *models.BackendInfo) { notified = s })

	assert.Equal(t, models.BackendOnline, m.Probe(context.Background()))
	assert.Equal(t, models.BackendOnline, notified)

	status, info := m.Status()
	assert.Equal(t, models.BackendOnline, status)
	require.NotNil(t, info)
	assert.Equal(t, "deepfake-detection-api", info.Service)
	assert.Equal(t, "cpu", info.Device)
	assert.True(t, info.ModelLoaded)
}

func TestProbeOnlineWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := NewMonitor(srv.URL, time.Second, zap.NewNop())
	assert.Equal(t, models.BackendOnline, m.Probe(context.Background()))
	_, info := m.Status()
	assert.Nil(t, info)
}

func TestProbeDowngradesToUnknown(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		assert.Equal(t, models.BackendUnknown, NewMonitor(srv.URL, time.Second, zap.NewNop()).Probe(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		assert.Equal(t, models.BackendUnknown, NewMonitor(url, time.Second, zap.NewNop()).Probe(context.Background()))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		start := time.Now()
		status := NewMonitor(srv.URL, 50*time.Millisecond, zap.NewNop()).Probe(context.Background())
		assert.Equal(t, models.BackendUnknown, status)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, models.BackendUnknown, NewMonitor("http://127.0.0.1:1/health", time.Second, zap.NewNop()).Probe(ctx))
	})
}
