package usecase

import (
	"errors"
	"fmt"

	"github.com/example/deepfake-verifier/internal/inference"
	"github.com/example/deepfake-verifier/internal/models"
	"github.com/example/deepfake-verifier/internal/verdict"
)

// ErrAnalysisInProgress rejects submissions and selections while a run is in flight.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// ErrorKind classifies analysis failures for the user-facing surface.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindConcurrency       ErrorKind = "concurrency"
	KindTransport         ErrorKind = "transport"
	KindService           ErrorKind = "service"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindNoFaceDetected    ErrorKind = "no_face_detected"
	KindServiceReported   ErrorKind = "service_reported"
	KindUnexpected        ErrorKind = "unexpected"
)

const (
	msgNetwork        = "Network error: could not reach the analysis service. Check your connection and try again."
	msgNetworkTimeout = "Network error: the analysis service did not respond in time. Check your connection and try again."
	msgMalformed      = "Server unavailable: the analysis service returned an unreadable response. Please try again later."
	msgUnexpected     = "Unexpected error: the analysis could not be completed. Please try again."
)

// AnalysisError is the classified outcome of a failed submission or run.
// Message is what the surface shows.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Severity is the severity the surface uses for this error. Outcomes the
// service reports on purpose are warnings, malfunctions are errors.
func (e *AnalysisError) Severity() models.Severity {
	switch e.Kind {
	case KindConcurrency, KindNoFaceDetected, KindServiceReported:
		return models.SeverityWarning
	default:
		return models.SeverityError
	}
}

// IsKind reports whether err is an AnalysisError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var aerr *AnalysisError
	return errors.As(err, &aerr) && aerr.Kind == kind
}

func concurrencyError() *AnalysisError {
	return &AnalysisError{Kind: KindConcurrency, Message: ErrAnalysisInProgress.Error(), Err: ErrAnalysisInProgress}
}

func classify(err error) *AnalysisError {
	var (
		domainErr    *verdict.DomainError
		transportErr *inference.TransportError
		serviceErr   *inference.ServiceError
		malformedErr *inference.MalformedResponseError
	)

	switch {
	case errors.As(err, &domainErr):
		kind := KindServiceReported
		if domainErr.Reason == verdict.NoFaceDetected {
			kind = KindNoFaceDetected
		}
		return &AnalysisError{Kind: kind, Message: domainErr.Text, Err: err}
	case errors.As(err, &transportErr):
		msg := msgNetwork
		if transportErr.Timeout() {
			msg = msgNetworkTimeout
		}
		return &AnalysisError{Kind: KindTransport, Message: msg, Err: err}
	case errors.As(err, &serviceErr):
		msg := fmt.Sprintf("Server unavailable: the analysis service returned HTTP %d. Please try again later.", serviceErr.StatusCode)
		if serviceErr.Message != "" {
			msg = fmt.Sprintf("Server unavailable: the analysis service returned HTTP %d (%s).", serviceErr.StatusCode, serviceErr.Message)
		}
		return &AnalysisError{Kind: KindService, Message: msg, Err: err}
	case errors.As(err, &malformedErr):
		return &AnalysisError{Kind: KindMalformedResponse, Message: msgMalformed, Err: err}
	default:
		return &AnalysisError{Kind: KindUnexpected, Message: msgUnexpected, Err: err}
	}
}
