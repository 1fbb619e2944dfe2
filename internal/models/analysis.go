package models

import "time"

// Severity classifies a surfaced message.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationOutcome is produced per validation call and never persisted.
type ValidationOutcome struct {
	IsValid  bool     `json:"is_valid"`
	Message  string   `json:"message,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// AnalysisState is the lifecycle position of the analysis orchestrator.
type AnalysisState int

const (
	StateIdle AnalysisState = iota
	StateValidating
	StateUploading
	StateRemoteProcessing
	StateInterpreting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateValidating:       "validating",
	StateUploading:        "uploading",
	StateRemoteProcessing: "remote_processing",
	StateInterpreting:     "interpreting",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s AnalysisState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON payloads.
func (s AnalysisState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ProgressMarker is a cosmetic step shown while the service works.
type ProgressMarker int

const (
	ProgressNone ProgressMarker = iota
	ProgressUploading
	ProgressDetectingFaces
	ProgressAnalyzing
)

func (p ProgressMarker) String() string {
	switch p {
	case ProgressUploading:
		return "uploading"
	case ProgressDetectingFaces:
		return "detecting-faces"
	case ProgressAnalyzing:
		return "analyzing"
	default:
		return ""
	}
}

func (p ProgressMarker) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ServiceResponse is the JSON body returned by the predict endpoint.
type ServiceResponse struct {
	PredictionResult string   `json:"prediction_result,omitempty"`
	Error            string   `json:"error,omitempty"`
	AnalyzedFaces    []string `json:"analyzed_faces,omitempty"`
}

// Text returns the sentence to interpret: the prediction when present,
// otherwise the error.
func (r *ServiceResponse) Text() string {
	if r == nil {
		return ""
	}
	if r.PredictionResult != "" {
		return r.PredictionResult
	}
	return r.Error
}

// Label is the binary classification of a verdict.
type Label string

const (
	ManipulationLikely   Label = "manipulation_likely"
	ManipulationUnlikely Label = "manipulation_unlikely"
)

// Verdict is derived from a ServiceResponse by the verdict package.
type Verdict struct {
	Label             Label   `json:"label"`
	ConfidencePercent float64 `json:"confidence_percent"`
	Text              string  `json:"text"`
}

// Thumbnail is one entry of the analysed-faces gallery.
type Thumbnail struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Src   string `json:"src"`
}

// PreviewHandle references locally held media bytes served by the console.
type PreviewHandle struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackendStatus is the tri-state liveness indicator.
type BackendStatus string

const (
	BackendChecking BackendStatus = "checking"
	BackendOnline   BackendStatus = "online"
	BackendUnknown  BackendStatus = "unknown"
)

// BackendInfo holds the optional details a healthy service reports.
type BackendInfo struct {
	Status      string `json:"status,omitempty"`
	Service     string `json:"service,omitempty"`
	Version     string `json:"version,omitempty"`
	Device      string `json:"device,omitempty"`
	ModelLoaded bool   `json:"model_loaded,omitempty"`
}
