package predictclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/inference"
	"github.com/example/deepfake-verifier/internal/logging"
	"github.com/example/deepfake-verifier/internal/models"
)

// FormField is the multipart field the service reads the video from.
const FormField = "file"

const maxResponseBytes = 32 << 20

// Client posts videos to the predict endpoint over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a ready-to-use client for the inference service.
func New(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewWithHTTPClient(endpoint, &http.Client{Timeout: timeout}, logger)
}

// NewWithHTTPClient lets callers supply their own transport.
func NewWithHTTPClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{endpoint: endpoint, httpClient: httpClient, logger: logger.Named("predict_client")}
}

var _ inference.Client = (*Client)(nil)

// Predict uploads file as multipart/form-data and decodes the service answer.
func (c *Client) Predict(ctx context.Context, file *models.FileSelection, sent func()) (*models.ServiceResponse, error) {
	src, err := file.Open()
	if err != nil {
		return nil, logging.NewOperationError("predictclient.open_selection", "", err)
	}
	defer src.Close()

	body, contentType, length, err := multipartBody(file.Name, src)
	if err != nil {
		return nil, logging.NewOperationError("predictclient.build_body", "", err)
	}

	if sent != nil {
		ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
			WroteRequest: func(info httptrace.WroteRequestInfo) {
				if info.Err == nil {
					sent()
				}
			},
		})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &inference.TransportError{Err: err}
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("predict request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, &inference.TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("predict response body unreadable",
			zap.Int("status", resp.StatusCode), zap.String("endpoint", c.endpoint), zap.Error(err))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &inference.ServiceError{StatusCode: resp.StatusCode}
		}
		return nil, &inference.MalformedResponseError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("predict returned non-success status",
			zap.Int("status", resp.StatusCode), zap.String("endpoint", c.endpoint))
		return nil, &inference.ServiceError{StatusCode: resp.StatusCode, Message: errorText(payload)}
	}

	var out models.ServiceResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &inference.MalformedResponseError{Err: err}
	}
	if out.PredictionResult == "" && out.Error == "" {
		return nil, &inference.MalformedResponseError{Err: errors.New("response has neither prediction_result nor error")}
	}
	return &out, nil
}

// multipartBody frames src as the single file field of a multipart form.
// The length is computed up front so the request is not sent chunked.
func multipartBody(name string, src io.ReadSeeker) (io.Reader, string, int64, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, "", 0, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, "", 0, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile(FormField, name); err != nil {
		return nil, "", 0, err
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, "", 0, err
	}
	head := buf.Bytes()[:headLen]
	tail := buf.Bytes()[headLen:]

	body := io.MultiReader(bytes.NewReader(head), src, bytes.NewReader(tail))
	return body, mw.FormDataContentType(), int64(len(head)) + size + int64(len(tail)), nil
}

// errorText extracts {"error": "..."} from a failure body, if present.
func errorText(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Error
}
