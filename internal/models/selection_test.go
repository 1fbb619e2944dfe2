package models

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemorySelectionInfersMimeType(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":  "video/mp4",
		"clip.MOV":  "video/quicktime",
		"clip.avi":  "video/x-msvideo",
		"clip.mkv":  "video/x-matroska",
		"clip.webm": "video/webm",
	}
	for name, want := range cases {
		sel := NewMemorySelection(name, "", []byte("data"))
		assert.Equal(t, want, sel.MimeType, name)
	}

	sel := NewMemorySelection("notes.bin", "application/octet-stream", nil)
	assert.Equal(t, "application/octet-stream", sel.MimeType)
}

func TestNewMemorySelectionKeepsExplicitType(t *testing.T) {
	sel := NewMemorySelection("clip.mp4", "video/webm", []byte("abc"))
	assert.Equal(t, "video/webm", sel.MimeType)
	assert.EqualValues(t, 3, sel.SizeBytes)
}

func TestFileSelectionOpenReturnsFreshReaders(t *testing.T) {
	sel := NewMemorySelection("clip.mp4", "video/mp4", []byte("frames"))

	for i := 0; i < 2; i++ {
		r, err := sel.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "frames", string(data))
		require.NoError(t, r.Close())
	}

	var empty *FileSelection
	_, err := empty.Open()
	assert.Error(t, err)
}

func TestServiceResponseTextPrefersPrediction(t *testing.T) {
	assert.Equal(t, "a", (&ServiceResponse{PredictionResult: "a", Error: "b"}).Text())
	assert.Equal(t, "b", (&ServiceResponse{Error: "b"}).Text())
	assert.Equal(t, "", (*ServiceResponse)(nil).Text())
}

func TestAnalysisStateNames(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "remote_processing", StateRemoteProcessing.String())
	assert.Equal(t, "unknown", AnalysisState(42).String())
}
