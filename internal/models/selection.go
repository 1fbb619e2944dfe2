package models

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// FileSelection is the video currently chosen on the selection surface.
type FileSelection struct {
	Name      string
	MimeType  string
	SizeBytes int64

	open func() (io.ReadSeekCloser, error)
}

// NewMemorySelection wraps buffered bytes as a selection. An empty mimeType is
// inferred from the file extension.
func NewMemorySelection(name, mimeType string, data []byte) *FileSelection {
	if strings.TrimSpace(mimeType) == "" || mimeType == "application/octet-stream" {
		if inferred := MimeTypeFromName(name); inferred != "" {
			mimeType = inferred
		}
	}
	return &FileSelection{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		open: func() (io.ReadSeekCloser, error) {
			return nopSeekCloser{bytes.NewReader(data)}, nil
		},
	}
}

// NewStreamSelection builds a selection around an arbitrary opener.
func NewStreamSelection(name, mimeType string, size int64, open func() (io.ReadSeekCloser, error)) *FileSelection {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = MimeTypeFromName(name)
	}
	return &FileSelection{Name: name, MimeType: mimeType, SizeBytes: size, open: open}
}

// Open returns a fresh reader over the selected bytes.
func (f *FileSelection) Open() (io.ReadSeekCloser, error) {
	if f == nil || f.open == nil {
		return nil, errors.New("selection has no content")
	}
	return f.open()
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// MimeTypeFromName guesses a MIME type from the file extension. Unknown
// extensions yield an empty string.
func MimeTypeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := videoExtensions[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return ""
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }
