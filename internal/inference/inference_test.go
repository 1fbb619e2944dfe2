package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestTransportErrorTimeout(t *testing.T) {
	assert.True(t, (&TransportError{Err: context.DeadlineExceeded}).Timeout())
	assert.True(t, (&TransportError{Err: fmt.Errorf("dial: %w", timeoutErr{})}).Timeout())
	assert.False(t, (&TransportError{Err: errors.New("connection refused")}).Timeout())
}

func TestServiceErrorMessage(t *testing.T) {
	assert.Equal(t, "inference service returned 503", (&ServiceError{StatusCode: 503}).Error())
	assert.Equal(t, "inference service returned 400: No file selected for upload.",
		(&ServiceError{StatusCode: 400, Message: "No file selected for upload."}).Error())
}
