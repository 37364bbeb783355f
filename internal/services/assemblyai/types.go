package assemblyai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transcript statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// TranscriptRequest is the body of POST /transcript.
type TranscriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code,omitempty"`
}

// Transcript is the subset of the provider's transcript record the service
// inspects. Raw keeps the full record as returned.
type Transcript struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Text   string          `json:"text"`
	Error  string          `json:"-"`
	Raw    json.RawMessage `json:"-"`
}

type uploadResponse struct {
	UploadURL string          `json:"upload_url"`
	Error     json.RawMessage `json:"error"`
}

type transcriptResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Text   *string         `json:"text"`
	Error  json.RawMessage `json:"error"`
}

// APIError is an error reported by the provider, either through a non-2xx
// status or through an "error" field in the response body.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assemblyai %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

// errorMessage normalizes the provider's "error" field to a string. The
// field is usually a string but is not guaranteed to be one.
func errorMessage(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "false" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return trimmed
}
