package usecase

import "github.com/example/deepfake-verifier/internal/models"

// Message is a user-facing notice on the surface.
type Message struct {
	Severity models.Severity `json:"severity"`
	Text     string          `json:"text"`
}

// Ports is the rendering surface the orchestrator drives. Implementations
// must not call back into the use case.
type Ports interface {
	// ShowState publishes every analysis state change. SetBusy(true) precedes
	// the move to Uploading and SetBusy(false) precedes the return to Idle.
	ShowState(state models.AnalysisState)
	ShowMessage(msg Message)
	ClearMessage()
	// SetBusy disables (true) or re-enables (false) submission and file selection.
	SetBusy(busy bool)
	ShowProgress(marker models.ProgressMarker)
	// RenderVerdict shows v; nil hides the result.
	RenderVerdict(v *models.Verdict)
	// RenderGallery shows the thumbnails; an empty slice hides the gallery.
	RenderGallery(thumbs []models.Thumbnail)
	// RenderPreview shows the local preview; nil hides it.
	RenderPreview(h *models.PreviewHandle)
}
