package predictclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/inference"
	"github.com/example/deepfake-verifier/internal/models"
)

func newClient(url string) *Client {
	return New(url, 5*time.Second, zap.NewNop())
}

func video() *models.FileSelection {
	return models.NewMemorySelection("clip.mp4", "video/mp4", []byte("fake video bytes"))
}

func TestPredictSendsMultipartFileField(t *testing.T) {
	var gotName, gotBody string
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotLength = r.ContentLength
		file, header, err := r.FormFile(FormField)
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotBody = header.Filename, string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"prediction_result":"Video is 87.34% likely to be a FAKE.","analyzed_faces":["abc"]}`)
	}))
	defer srv.Close()

	var sent atomic.Int32
	resp, err := newClient(srv.URL).Predict(context.Background(), video(), func() { sent.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, "clip.mp4", gotName)
	assert.Equal(t, "fake video bytes", gotBody)
	assert.Positive(t, gotLength)
	assert.Equal(t, "Video is 87.34% likely to be a FAKE.", resp.PredictionResult)
	assert.Equal(t, []string{"abc"}, resp.AnalyzedFaces)
	assert.EqualValues(t, 1, sent.Load())
}

func TestPredictErrorBodyWithSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"No face detected in video."}`)
	}))
	defer srv.Close()

	resp, err := newClient(srv.URL).Predict(context.Background(), video(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No face detected in video.", resp.Error)
}

func TestPredictNonSuccessStatusIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"prediction_result":"Video is 99% likely to be a FAKE."}`)
	}))
	defer srv.Close()

	resp, err := newClient(srv.URL).Predict(context.Background(), video(), nil)
	assert.Nil(t, resp)

	var svcErr *inference.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
	assert.Empty(t, svcErr.Message)
}

func TestPredictServiceErrorCarriesErrorText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid file type. Allowed types: mp4, avi"}`)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Predict(context.Background(), video(), nil)

	var svcErr *inference.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "Invalid file type. Allowed types: mp4, avi", svcErr.Message)
}

func TestPredictMalformedBody(t *testing.T) {
	for _, body := range []string{"<html>oops</html>", `{}`, `{"prediction_result": 12}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))

		_, err := newClient(srv.URL).Predict(context.Background(), video(), nil)
		srv.Close()

		var malformed *inference.MalformedResponseError
		assert.ErrorAs(t, err, &malformed, body)
	}
}

func TestPredictTruncatedBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = io.WriteString(w, `{"prediction_result":`)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Predict(context.Background(), video(), nil)

	var malformed *inference.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	var transportErr *inference.TransportError
	assert.False(t, errors.As(err, &transportErr))
}

func TestPredictUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url).Predict(context.Background(), video(), nil)

	var transportErr *inference.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.False(t, transportErr.Timeout())
}

func TestPredictTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, 50*time.Millisecond, zap.NewNop()).Predict(context.Background(), video(), nil)

	var transportErr *inference.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Timeout())
}
