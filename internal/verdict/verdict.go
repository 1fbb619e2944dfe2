// Package verdict turns the inference service's free-text answer into a
// structured verdict and a face gallery.
package verdict

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/deepfake-verifier/internal/models"
)

// Threshold is the exclusive confidence boundary above which manipulation is likely.
const Threshold = 50.0

const noFacePhrase = "no face detected"

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// Reason distinguishes the outcomes that preclude a verdict.
type Reason string

const (
	NoFaceDetected  Reason = "no_face_detected"
	ServiceReported Reason = "service_reported"
)

// DomainError is a valid service answer that cannot become a verdict. Text
// carries the service's message verbatim.
type DomainError struct {
	Reason Reason
	Text   string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Text)
}

// Interpret derives a verdict from a successful service response.
func Interpret(resp *models.ServiceResponse) (*models.Verdict, error) {
	text := resp.Text()
	if strings.Contains(strings.ToLower(text), noFacePhrase) {
		return nil, &DomainError{Reason: NoFaceDetected, Text: text}
	}
	if resp != nil && resp.PredictionResult == "" && resp.Error != "" {
		return nil, &DomainError{Reason: ServiceReported, Text: resp.Error}
	}

	confidence := ExtractPercent(text)
	label := models.ManipulationUnlikely
	if confidence > Threshold {
		label = models.ManipulationLikely
	}
	return &models.Verdict{Label: label, ConfidencePercent: confidence, Text: text}, nil
}

// ExtractPercent returns the first "<digits>[.<digits>]%" value in text, or 0.
func ExtractPercent(text string) float64 {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if errors.Is(err, strconv.ErrRange) {
		return 100
	}
	if err != nil {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Gallery lists the analysed faces with ordinal labels. An empty or absent
// list yields nil so the gallery stays hidden.
func Gallery(resp *models.ServiceResponse) []models.Thumbnail {
	if resp == nil {
		return nil
	}
	var thumbs []models.Thumbnail
	for _, ref := range resp.AnalyzedFaces {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		n := len(thumbs) + 1
		thumbs = append(thumbs, models.Thumbnail{
			Index: n,
			Label: fmt.Sprintf("Face %d", n),
			Src:   imageSource(ref),
		})
	}
	return thumbs
}

func imageSource(ref string) string {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return ref
	}
	return "data:image/jpeg;base64," + ref
}
