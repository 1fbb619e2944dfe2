// Package preview owns the locally served copies of selected videos.
package preview

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/models"
)

// ErrNotFound is returned for handles that were never created or are released.
var ErrNotFound = errors.New("preview not found or released")

// ReleaseReason records why a handle was released.
type ReleaseReason string

const (
	ReasonReplaced      ReleaseReason = "replaced"
	ReasonPlaybackError ReleaseReason = "playback_error"
	ReasonExpired       ReleaseReason = "expired"
	ReasonSuperseded    ReleaseReason = "superseded"
	ReasonShutdown      ReleaseReason = "shutdown"
)

type entry struct {
	handle models.PreviewHandle
	file   *models.FileSelection
	timer  *time.Timer
}

// Manager holds at most one live preview. Every handle it creates is released
// exactly once: on replacement, playback error, expiry or shutdown.
type Manager struct {
	mu        sync.Mutex
	current   *entry
	ttl       time.Duration
	basePath  string
	now       func() time.Time
	onRelease func(models.PreviewHandle, ReleaseReason)
	logger    *zap.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithOnRelease registers a hook invoked once per released handle.
func WithOnRelease(fn func(models.PreviewHandle, ReleaseReason)) Option {
	return func(m *Manager) { m.onRelease = fn }
}

// WithBasePath sets the URL prefix handles are served under.
func WithBasePath(path string) Option {
	return func(m *Manager) { m.basePath = path }
}

// NewManager creates a manager whose handles expire after ttl.
func NewManager(ttl time.Duration, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		ttl:      ttl,
		basePath: "/preview/",
		now:      time.Now,
		logger:   logger.Named("preview"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a preview for file, releasing the previous one first.
func (m *Manager) Create(file *models.FileSelection) models.PreviewHandle {
	id := uuid.NewString()
	h := models.PreviewHandle{
		ID:        id,
		URL:       m.basePath + id,
		Name:      file.Name,
		MimeType:  file.MimeType,
		ExpiresAt: m.now().Add(m.ttl),
	}

	m.mu.Lock()
	prev := m.detachLocked()
	e := &entry{handle: h, file: file}
	e.timer = time.AfterFunc(m.ttl, func() { m.Release(id, ReasonExpired) })
	m.current = e
	m.mu.Unlock()

	m.notify(prev, ReasonReplaced)
	m.logger.Debug("preview created", zap.String("preview_id", id), zap.String("file", file.Name))
	return h
}

// Release frees the handle with the given id. Releasing an unknown or already
// released handle is a no-op; the return value reports whether this call
// performed the release.
func (m *Manager) Release(id string, reason ReleaseReason) bool {
	m.mu.Lock()
	if m.current == nil || m.current.handle.ID != id {
		m.mu.Unlock()
		return false
	}
	e := m.detachLocked()
	m.mu.Unlock()

	m.notify(e, reason)
	return true
}

// ReleaseCurrent frees whichever handle is live, if any.
func (m *Manager) ReleaseCurrent(reason ReleaseReason) {
	m.mu.Lock()
	e := m.detachLocked()
	m.mu.Unlock()
	m.notify(e, reason)
}

// Current returns the live handle.
func (m *Manager) Current() (models.PreviewHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.PreviewHandle{}, false
	}
	return m.current.handle, true
}

// Open returns the bytes behind a live handle.
func (m *Manager) Open(id string) (models.PreviewHandle, io.ReadSeekCloser, error) {
	m.mu.Lock()
	if m.current == nil || m.current.handle.ID != id {
		m.mu.Unlock()
		return models.PreviewHandle{}, nil, ErrNotFound
	}
	e := m.current
	m.mu.Unlock()

	rc, err := e.file.Open()
	if err != nil {
		return models.PreviewHandle{}, nil, err
	}
	return e.handle, rc, nil
}

// Close releases the live handle at shutdown.
func (m *Manager) Close() {
	m.ReleaseCurrent(ReasonShutdown)
}

func (m *Manager) detachLocked() *entry {
	e := m.current
	if e == nil {
		return nil
	}
	m.current = nil
	e.timer.Stop()
	return e
}

func (m *Manager) notify(e *entry, reason ReleaseReason) {
	if e == nil {
		return
	}
	m.logger.Debug("preview released", zap.String("preview_id", e.handle.ID), zap.String("reason", string(reason)))
	if m.onRelease != nil {
		m.onRelease(e.handle, reason)
	}
}
