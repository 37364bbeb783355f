package transcription

import (
	"io"
	"time"
)

type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// AudioSource is what the caller supplied: either file bytes or a URL.
type AudioSource struct {
	Kind SourceKind

	// File fields
	Body     io.Reader
	Name     string
	MimeHint string
	Size     int64

	// URL fields
	URL string
}

// FileSource builds a file-backed AudioSource.
func FileSource(body io.Reader, name, mimeHint string, size int64) AudioSource {
	return AudioSource{Kind: SourceFile, Body: body, Name: name, MimeHint: mimeHint, Size: size}
}

// URLSource builds a URL-backed AudioSource.
func URLSource(url string) AudioSource {
	return AudioSource{Kind: SourceURL, URL: url}
}

// IsPresent reports whether the source carries usable input.
func (s AudioSource) IsPresent() bool {
	switch s.Kind {
	case SourceFile:
		return s.Body != nil
	case SourceURL:
		return s.URL != ""
	default:
		return false
	}
}

// Request is one transcription request. StartedAt is when the caller's
// request began; the reported duration is measured from it.
type Request struct {
	Source    AudioSource
	StartedAt time.Time
}
