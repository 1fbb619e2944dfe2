package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/inference"
	"github.com/example/deepfake-verifier/internal/logging"
	"github.com/example/deepfake-verifier/internal/models"
	"github.com/example/deepfake-verifier/internal/preview"
	"github.com/example/deepfake-verifier/internal/progress"
	"github.com/example/deepfake-verifier/internal/verdict"
)

// Validator defines the checks the use case runs before submitting.
type Validator interface {
	Validate(sel *models.FileSelection) models.ValidationOutcome
	CheckSize(sel *models.FileSelection) models.ValidationOutcome
}

// PreviewManager defines the preview lifecycle operations used by the use case.
type PreviewManager interface {
	Create(file *models.FileSelection) models.PreviewHandle
	Release(id string, reason preview.ReleaseReason) bool
	ReleaseCurrent(reason preview.ReleaseReason)
}

// AnalysisUseCase owns the analysis state machine. It is the only writer of
// the analysis state and the selection.
type AnalysisUseCase struct {
	validator      Validator
	previews       PreviewManager
	client         inference.Client
	ports          Ports
	progress       *progress.Scheduler
	sizeAckTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time

	mu        sync.Mutex
	state     models.AnalysisState
	selection *models.FileSelection
	run       *Run
	ack       chan struct{}

	metrics metricsRecorder
}

// Option customises the use case.
type Option func(*AnalysisUseCase)

// WithProgress replaces the default cosmetic progress schedule.
func WithProgress(s *progress.Scheduler) Option {
	return func(uc *AnalysisUseCase) { uc.progress = s }
}

// WithSizeAckTimeout sets how long a size warning waits before continuing on its own.
func WithSizeAckTimeout(d time.Duration) Option {
	return func(uc *AnalysisUseCase) { uc.sizeAckTimeout = d }
}

// NewAnalysisUseCase constructs a use case in the Idle state.
func NewAnalysisUseCase(validator Validator, previews PreviewManager, client inference.Client, ports Ports, logger *zap.Logger, opts ...Option) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		validator:      validator,
		previews:       previews,
		client:         client,
		ports:          ports,
		progress:       progress.NewScheduler(2*time.Second, 4*time.Second),
		sizeAckTimeout: 3 * time.Second,
		logger:         logger.Named("analysis_usecase"),
		now:            time.Now,
		state:          models.StateIdle,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// State returns the current analysis state.
func (uc *AnalysisUseCase) State() models.AnalysisState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// Selection returns the current file selection, if any.
func (uc *AnalysisUseCase) Selection() *models.FileSelection {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.selection
}

// CurrentRun returns the run in flight, if any.
func (uc *AnalysisUseCase) CurrentRun() *Run {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.run
}

// SelectFile replaces the selection, clears any previous result and preview,
// and validates the new file. It is rejected while a run is in flight.
func (uc *AnalysisUseCase) SelectFile(sel *models.FileSelection) (models.ValidationOutcome, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.state != models.StateIdle {
		uc.ports.ShowMessage(Message{Severity: models.SeverityWarning, Text: ErrAnalysisInProgress.Error()})
		return models.ValidationOutcome{}, concurrencyError()
	}

	uc.selection = sel
	uc.previews.ReleaseCurrent(preview.ReasonSuperseded)
	uc.ports.RenderPreview(nil)
	uc.ports.RenderVerdict(nil)
	uc.ports.RenderGallery(nil)
	uc.ports.ShowProgress(models.ProgressNone)

	out := uc.validator.Validate(sel)
	switch {
	case !out.IsValid:
		uc.ports.ShowMessage(Message{Severity: out.Severity, Text: out.Message})
	default:
		if size := uc.validator.CheckSize(sel); size.Severity == models.SeverityWarning {
			uc.ports.ShowMessage(Message{Severity: size.Severity, Text: size.Message})
			out = size
		} else {
			uc.ports.ClearMessage()
		}
	}

	if sel != nil {
		uc.logger.Info("file selected",
			zap.String("file", sel.Name),
			zap.String("mime_type", sel.MimeType),
			zap.Int64("size_bytes", sel.SizeBytes),
			zap.Bool("valid", out.IsValid))
	}
	return out, nil
}

// Submit validates the current selection and, when it passes, starts a run
// in the background. The run cannot be cancelled through ctx.
func (uc *AnalysisUseCase) Submit(ctx context.Context) (*Run, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.state != models.StateIdle {
		uc.ports.ShowMessage(Message{Severity: models.SeverityWarning, Text: ErrAnalysisInProgress.Error()})
		uc.logger.Warn("submission rejected", zap.String("state", uc.state.String()))
		return nil, concurrencyError()
	}

	uc.setStateLocked(models.StateValidating)
	sel := uc.selection
	if out := uc.validator.Validate(sel); !out.IsValid {
		uc.setStateLocked(models.StateIdle)
		uc.ports.ShowMessage(Message{Severity: out.Severity, Text: out.Message})
		return nil, &AnalysisError{Kind: KindValidation, Message: out.Message}
	}

	run := newRun(uuid.NewString(), sel.Name, uc.now())
	ack := make(chan struct{})
	uc.run = run
	uc.ack = ack

	go uc.execute(context.WithoutCancel(ctx), run, sel, ack)
	return run, nil
}

// AcknowledgeSizeWarning lets a run waiting on a size warning continue at
// once. It reports whether a run was waiting.
func (uc *AnalysisUseCase) AcknowledgeSizeWarning() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.ack == nil {
		return false
	}
	close(uc.ack)
	uc.ack = nil
	return true
}

// ReportPlaybackError releases the preview that failed to play.
func (uc *AnalysisUseCase) ReportPlaybackError(previewID string) bool {
	if !uc.previews.Release(previewID, preview.ReasonPlaybackError) {
		return false
	}
	uc.ports.RenderPreview(nil)
	uc.logger.Info("preview released after playback error", zap.String("preview_id", previewID))
	return true
}

func (uc *AnalysisUseCase) execute(ctx context.Context, run *Run, sel *models.FileSelection, ack <-chan struct{}) {
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", run.ID)
	var res Result
	defer func() {
		if r := recover(); r != nil {
			opLogger.Error("analysis panicked", zap.Any("panic", r))
			res = Result{Err: uc.fail(opLogger, &AnalysisError{Kind: KindUnexpected, Message: msgUnexpected, Err: fmt.Errorf("panic: %v", r)})}
		}
		uc.finish(run, res, opLogger)
	}()

	if warning := uc.validator.CheckSize(sel); warning.Severity == models.SeverityWarning {
		uc.ports.ShowMessage(Message{Severity: warning.Severity, Text: warning.Message})
		acknowledged := uc.awaitAcknowledgement(ack)
		opLogger.Info("size warning passed", zap.Int64("size_bytes", sel.SizeBytes), zap.Bool("acknowledged", acknowledged))
	}
	uc.clearAck()

	uc.ports.SetBusy(true)
	uc.transition(run, models.StateValidating, models.StateUploading)
	uc.ports.ClearMessage()
	uc.ports.RenderVerdict(nil)
	uc.ports.RenderGallery(nil)
	handle := uc.previews.Create(sel)
	uc.ports.RenderPreview(&handle)

	opLogger.Info("uploading video", zap.String("file", sel.Name), zap.Int64("size_bytes", sel.SizeBytes))
	ticker := uc.progress.Start(uc.ports.ShowProgress)
	defer ticker.Stop()

	resp, err := uc.client.Predict(ctx, sel, func() {
		uc.transition(run, models.StateUploading, models.StateRemoteProcessing)
	})
	ticker.Stop()
	if err != nil {
		res.Err = uc.fail(opLogger, classify(logging.NewOperationError("usecase.predict", run.ID, err)))
		return
	}

	uc.setState(models.StateInterpreting)
	v, err := verdict.Interpret(resp)
	if err != nil {
		res.Err = uc.fail(opLogger, classify(err))
		return
	}
	gallery := verdict.Gallery(resp)

	uc.ports.RenderVerdict(v)
	uc.ports.RenderGallery(gallery)
	uc.setState(models.StateDone)
	opLogger.Info("analysis complete",
		zap.String("label", string(v.Label)),
		zap.Float64("confidence_percent", v.ConfidencePercent),
		zap.Int("faces", len(gallery)))
	res = Result{Verdict: v, Gallery: gallery}
}

func (uc *AnalysisUseCase) awaitAcknowledgement(ack <-chan struct{}) bool {
	timer := time.NewTimer(uc.sizeAckTimeout)
	defer timer.Stop()
	select {
	case <-ack:
		return true
	case <-timer.C:
		return false
	}
}

func (uc *AnalysisUseCase) fail(opLogger *zap.Logger, aerr *AnalysisError) error {
	uc.setState(models.StateFailed)
	uc.ports.ShowMessage(Message{Severity: aerr.Severity(), Text: aerr.Message})
	if aerr.Kind == KindNoFaceDetected || aerr.Kind == KindServiceReported {
		opLogger.Info("service reported no verdict", zap.String("kind", string(aerr.Kind)), zap.String("text", aerr.Message))
	} else {
		opLogger.Error("analysis failed", zap.String("kind", string(aerr.Kind)), zap.Error(aerr.Err))
	}
	return aerr
}

// finish is the single reset point for every run, successful or not.
func (uc *AnalysisUseCase) finish(run *Run, res Result, opLogger *zap.Logger) {
	uc.ports.ShowProgress(models.ProgressNone)
	uc.ports.SetBusy(false)

	uc.mu.Lock()
	uc.setStateLocked(models.StateIdle)
	uc.run = nil
	uc.ack = nil
	uc.mu.Unlock()

	latency := uc.now().Sub(run.StartedAt)
	uc.metrics.record(res, latency)
	opLogger.Debug("analysis reset to idle", zap.Duration("latency", latency))
	run.complete(res)
}

func (uc *AnalysisUseCase) setState(s models.AnalysisState) {
	uc.mu.Lock()
	uc.setStateLocked(s)
	uc.mu.Unlock()
}

// setStateLocked records s and publishes it to the surface. Callers hold uc.mu.
func (uc *AnalysisUseCase) setStateLocked(s models.AnalysisState) {
	uc.state = s
	uc.ports.ShowState(s)
}

// transition moves run to next only while run is still the current run and
// the state is still from. Callbacks that outlive their run are ignored.
func (uc *AnalysisUseCase) transition(run *Run, from, next models.AnalysisState) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.run != run || uc.state != from {
		return false
	}
	uc.setStateLocked(next)
	return true
}

func (uc *AnalysisUseCase) clearAck() {
	uc.mu.Lock()
	uc.ack = nil
	uc.mu.Unlock()
}
