package handlers

import (
	"sync"

	"github.com/example/deepfake-verifier/internal/models"
	"github.com/example/deepfake-verifier/internal/usecase"
)

// BackendView is the status indicator as rendered on the console.
type BackendView struct {
	Status models.BackendStatus `json:"status"`
	Info   *models.BackendInfo  `json:"info,omitempty"`
}

// Snapshot is what the console shows at one point in time.
type Snapshot struct {
	State    models.AnalysisState  `json:"state"`
	Busy     bool                  `json:"busy"`
	Message  *usecase.Message      `json:"message,omitempty"`
	Progress models.ProgressMarker `json:"progress"`
	Verdict  *models.Verdict       `json:"verdict,omitempty"`
	Gallery  []models.Thumbnail    `json:"gallery,omitempty"`
	Preview  *models.PreviewHandle `json:"preview,omitempty"`
	Backend  BackendView           `json:"backend"`
}

// Surface is the in-memory rendering surface polled by the console. It
// implements usecase.Ports.
type Surface struct {
	mu   sync.RWMutex
	view Snapshot
}

var _ usecase.Ports = (*Surface)(nil)

// NewSurface returns a surface showing an idle console and a backend still being checked.
func NewSurface() *Surface {
	return &Surface{view: Snapshot{Backend: BackendView{Status: models.BackendChecking}}}
}

// ShowMessage replaces the current notice.
func (s *Surface) ShowMessage(msg usecase.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Message = &msg
}

// ClearMessage hides the current notice.
func (s *Surface) ClearMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Message = nil
}

// SetBusy marks the selection and submit controls disabled while true.
func (s *Surface) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Busy = busy
}

// ShowState records the analysis state published by the use case.
func (s *Surface) ShowState(state models.AnalysisState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.State = state
}

// ShowProgress sets the cosmetic progress marker.
func (s *Surface) ShowProgress(marker models.ProgressMarker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Progress = marker
}

// RenderVerdict shows a copy of v; nil hides the result.
func (s *Surface) RenderVerdict(v *models.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		s.view.Verdict = nil
		return
	}
	copied := *v
	s.view.Verdict = &copied
}

// RenderGallery shows a copy of thumbs; an empty slice hides the gallery.
func (s *Surface) RenderGallery(thumbs []models.Thumbnail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(thumbs) == 0 {
		s.view.Gallery = nil
		return
	}
	s.view.Gallery = append([]models.Thumbnail(nil), thumbs...)
}

// RenderPreview shows a copy of h; nil hides the preview.
func (s *Surface) RenderPreview(h *models.PreviewHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		s.view.Preview = nil
		return
	}
	copied := *h
	s.view.Preview = &copied
}

// ClearPreview hides the preview only if it still shows the handle with id.
// It is used as the preview manager's release hook.
func (s *Surface) ClearPreview(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Preview != nil && s.view.Preview.ID == id {
		s.view.Preview = nil
	}
}

// SetBackend records the latest status probe.
func (s *Surface) SetBackend(status models.BackendStatus, info *models.BackendInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Backend = BackendView{Status: status, Info: info}
}

// Snapshot returns a copy of the current view. State and busy come from the
// same lock, so a snapshot never pairs an idle state with busy controls or an
// upload in flight with enabled ones.
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.view
	if snap.Gallery != nil {
		snap.Gallery = append([]models.Thumbnail(nil), snap.Gallery...)
	}
	return snap
}
