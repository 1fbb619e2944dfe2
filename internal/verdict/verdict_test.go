package verdict

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/deepfake-verifier/internal/models"
)

func TestInterpretScenarios(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		label      models.Label
		confidence float64
	}{
		{"likely fake", "Video is 87.34% likely to be a FAKE.", models.ManipulationLikely, 87.34},
		{"unlikely", "Video is 12.0% likely to be a FAKE.", models.ManipulationUnlikely, 12.0},
		{"boundary is exclusive", "Video is 50.0% likely to be a FAKE.", models.ManipulationUnlikely, 50.0},
		{"just above", "Video is 50.1% likely to be a FAKE.", models.ManipulationLikely, 50.1},
		{"just below", "Video is 49.9% likely to be a FAKE.", models.ManipulationUnlikely, 49.9},
		{"integer percent", "score 73% fake", models.ManipulationLikely, 73},
		{"first match wins", "Video is 12.5% likely, frame peak 99.9%", models.ManipulationUnlikely, 12.5},
		{"no percent", "Analysis complete.", models.ManipulationUnlikely, 0},
		{"clamped", "Video is 140% likely to be a FAKE.", models.ManipulationLikely, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Interpret(&models.ServiceResponse{PredictionResult: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.label, v.Label)
			assert.InDelta(t, tt.confidence, v.ConfidencePercent, 1e-9)
			assert.Equal(t, tt.text, v.Text)
		})
	}
}

func TestInterpretNoFaceDetected(t *testing.T) {
	for _, resp := range []*models.ServiceResponse{
		{Error: "No face detected in video."},
		{PredictionResult: "⚠️ No face detected in video."},
		{PredictionResult: "result: NO FACE DETECTED (42% frames decoded)"},
	} {
		v, err := Interpret(resp)
		assert.Nil(t, v)

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, NoFaceDetected, domainErr.Reason)
		assert.Equal(t, resp.Text(), domainErr.Text)
	}
}

func TestInterpretErrorOnlyResponseIsServiceReported(t *testing.T) {
	v, err := Interpret(&models.ServiceResponse{Error: "Model inference failed: Could not open video file"})
	assert.Nil(t, v)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ServiceReported, domainErr.Reason)
	assert.Equal(t, "Model inference failed: Could not open video file", domainErr.Text)
}

func TestExtractPercent(t *testing.T) {
	assert.Equal(t, 12.0, ExtractPercent("12.0%"))
	assert.Equal(t, 87.34, ExtractPercent("is 87.34% likely"))
	assert.Equal(t, 0.0, ExtractPercent("87.34 percent"))
	assert.Equal(t, 0.0, ExtractPercent(""))
	assert.Equal(t, 100.0, ExtractPercent("is 250% likely"))
}

func TestInterpretOverflowingPercentClampsToLikely(t *testing.T) {
	text := "Video is " + strings.Repeat("9", 400) + "% likely to be a FAKE."

	v, err := Interpret(&models.ServiceResponse{PredictionResult: text})

	require.NoError(t, err)
	assert.Equal(t, 100.0, v.ConfidencePercent)
	assert.Equal(t, models.ManipulationLikely, v.Label)
}

func TestGallery(t *testing.T) {
	thumbs := Gallery(&models.ServiceResponse{AnalyzedFaces: []string{
		"/9j/4AAQSkZJRg==",
		"",
		"https://cdn.example.com/face2.jpg",
		"data:image/png;base64,iVBORw0KGgo=",
	}})

	require.Len(t, thumbs, 3)
	assert.Equal(t, models.Thumbnail{Index: 1, Label: "Face 1", Src: "data:image/jpeg;base64,/9j/4AAQSkZJRg=="}, thumbs[0])
	assert.Equal(t, "Face 2", thumbs[1].Label)
	assert.Equal(t, "https://cdn.example.com/face2.jpg", thumbs[1].Src)
	assert.Equal(t, "Face 3", thumbs[2].Label)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", thumbs[2].Src)
}

func TestGalleryHiddenWhenEmpty(t *testing.T) {
	assert.Nil(t, Gallery(nil))
	assert.Nil(t, Gallery(&models.ServiceResponse{}))
	assert.Nil(t, Gallery(&models.ServiceResponse{AnalyzedFaces: []string{}}))
}
