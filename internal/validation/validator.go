package validation

import (
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/example/deepfake-verifier/internal/models"
)

// MessageNoFile is surfaced when submit is attempted without a selection.
const MessageNoFile = "no file selected"

// Validator decides whether a selection may be submitted.
type Validator struct {
	supported     map[string]struct{}
	formats       string
	sizeThreshold int64
}

// New builds a validator for the given MIME types and size-warning threshold.
func New(supportedTypes []string, sizeWarningThresholdBytes int64) *Validator {
	v := &Validator{
		supported:     make(map[string]struct{}, len(supportedTypes)),
		sizeThreshold: sizeWarningThresholdBytes,
	}
	for _, t := range supportedTypes {
		v.supported[normalize(t)] = struct{}{}
	}
	v.formats = describeFormats(supportedTypes)
	return v
}

// Validate checks presence and type. Size is never considered here.
func (v *Validator) Validate(sel *models.FileSelection) models.ValidationOutcome {
	if sel == nil {
		return models.ValidationOutcome{Message: MessageNoFile, Severity: models.SeverityError}
	}
	if _, ok := v.supported[normalize(sel.MimeType)]; !ok {
		return models.ValidationOutcome{
			Message:  fmt.Sprintf("unsupported file type %q: allowed formats are %s", sel.MimeType, v.formats),
			Severity: models.SeverityError,
		}
	}
	return models.ValidationOutcome{IsValid: true}
}

// CheckSize returns a warning outcome when the selection exceeds the
// advisory threshold. The outcome stays valid: large files are not blocked.
func (v *Validator) CheckSize(sel *models.FileSelection) models.ValidationOutcome {
	if sel == nil || v.sizeThreshold <= 0 || sel.SizeBytes <= v.sizeThreshold {
		return models.ValidationOutcome{IsValid: true}
	}
	return models.ValidationOutcome{
		IsValid: true,
		Message: fmt.Sprintf("%s is %s, above the recommended %s; upload and analysis may take a while",
			sel.Name, humanBytes(sel.SizeBytes), humanBytes(v.sizeThreshold)),
		Severity: models.SeverityWarning,
	}
}

func normalize(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(mimeType)
}

var formatLabels = map[string]string{
	"mp4":        "MP4",
	"mov":        "MOV",
	"quicktime":  "MOV",
	"avi":        "AVI",
	"x-msvideo":  "AVI",
	"webm":       "WEBM",
	"mkv":        "MKV",
	"x-matroska": "MKV",
}

var formatOrder = []string{"MP4", "MOV", "AVI", "WEBM", "MKV"}

func describeFormats(types []string) string {
	seen := make(map[string]bool)
	var extra []string
	for _, t := range types {
		sub := normalize(t)
		if i := strings.IndexByte(sub, '/'); i >= 0 {
			sub = sub[i+1:]
		}
		label, ok := formatLabels[sub]
		if !ok {
			label = strings.ToUpper(sub)
			if !seen[label] {
				extra = append(extra, label)
			}
		}
		seen[label] = true
	}

	var labels []string
	for _, l := range formatOrder {
		if seen[l] {
			labels = append(labels, l)
		}
	}
	sort.Strings(extra)
	labels = append(labels, extra...)
	return strings.Join(labels, ", ")
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
