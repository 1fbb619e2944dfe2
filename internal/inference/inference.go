package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/deepfake-verifier/internal/models"
)

// Client exposes the subset of the inference service used by the analysis flow.
// sent is invoked once the request body has been fully written.
type Client interface {
	Predict(ctx context.Context, file *models.FileSelection, sent func()) (*models.ServiceResponse, error)
}

// TransportError means the request never reached the service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the transport failure was a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ServiceError means the service answered with a non-success status.
// Message carries the body's error text when it had one.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("inference service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("inference service returned %d", e.StatusCode)
}

// MalformedResponseError means a success status carried an unusable body.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed inference response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
