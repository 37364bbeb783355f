package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/logger"
	"github.com/murmur-app/murmur/internal/middleware"
	"github.com/murmur-app/murmur/internal/sentry"
	"github.com/murmur-app/murmur/internal/services/transcription"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to disk.
const multipartMemory = 32 << 20

// Transcriber runs one transcription request to completion. Ready reports a
// configuration problem that would make every request fail.
type Transcriber interface {
	Ready() error
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Outcome, error)
}

type Server struct {
	transcriber    Transcriber
	maxUploadBytes int64
	now            func() time.Time
}

// NewServer returns handlers backed by t. Request bodies larger than
// maxUploadBytes are rejected; zero or negative disables the limit.
func NewServer(t Transcriber, maxUploadBytes int64) *Server {
	return &Server{
		transcriber:    t,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

type TranscribeRequest struct {
	AudioURL string `json:"audio_url"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// HandleTranscribe accepts a multipart upload (file or audio_url) or a JSON
// body with audio_url and blocks until the transcript is terminal.
func (s *Server) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	startedAt := s.now()

	// A server-side configuration problem wins over anything wrong with the body.
	if err := s.transcriber.Ready(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	src, cleanup, err := s.readSource(r)
	defer cleanup()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome, err := s.transcriber.Transcribe(r.Context(), transcription.Request{
		Source:    src,
		StartedAt: startedAt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Transcription completed",
		"job_id", outcome.Job.ID,
		"source", string(src.Kind),
		"duration", outcome.Duration,
		logger.WithTraceContext(r.Context()),
	)

	body, err := successBody(outcome)
	if err != nil {
		s.writeError(w, r, errors.NewInternalError("failed to encode transcription result", "ENCODE_FAILED", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// HandleHealth reports that the process is serving.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) readSource(r *http.Request) (transcription.AudioSource, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req TranscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if isTooLarge(err) {
				return transcription.AudioSource{}, noop, s.tooLarge()
			}
			if stderrors.Is(err, io.EOF) {
				return transcription.AudioSource{}, noop, nil
			}
			return transcription.AudioSource{}, noop, errors.NewValidationError("invalid JSON body", "INVALID_BODY", `send {"audio_url": "..."}`)
		}
		return urlSource(req.AudioURL), noop, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			if isTooLarge(err) {
				return transcription.AudioSource{}, noop, s.tooLarge()
			}
			return transcription.AudioSource{}, noop, errors.NewValidationError("invalid multipart form", "INVALID_BODY", "send the audio as the 'file' field or a link as 'audio_url'")
		}
		cleanup := func() { r.MultipartForm.RemoveAll() }

		if file, header, err := r.FormFile("file"); err == nil {
			prev := cleanup
			cleanup = func() {
				file.Close()
				prev()
			}
			return transcription.FileSource(file, header.Filename, header.Header.Get("Content-Type"), header.Size), cleanup, nil
		}
		return urlSource(r.FormValue("audio_url")), cleanup, nil

	default:
		// Neither shape: let the service report the missing input.
		return transcription.AudioSource{}, noop, nil
	}
}

func urlSource(url string) transcription.AudioSource {
	if strings.TrimSpace(url) == "" {
		return transcription.AudioSource{}
	}
	return transcription.URLSource(url)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

func (s *Server) tooLarge() error {
	return errors.NewPayloadTooLargeError(
		fmt.Sprintf("audio upload exceeds the %d byte limit", s.maxUploadBytes),
		"PAYLOAD_TOO_LARGE",
		nil,
	)
}

// successBody returns the provider's terminal record with duration_ms added.
func successBody(outcome *transcription.Outcome) ([]byte, error) {
	record := map[string]any{}
	if len(outcome.Job.Raw) > 0 {
		if err := json.Unmarshal(outcome.Job.Raw, &record); err != nil {
			return nil, err
		}
	} else {
		record["id"] = outcome.Job.ID
		record["status"] = "completed"
		record["text"] = outcome.Text
	}
	record["duration_ms"] = outcome.Duration.Milliseconds()
	return json.Marshal(record)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("internal server error", "INTERNAL", err)
	}

	requestID, _ := middleware.GetRequestID(r.Context())
	attrs := []any{
		"error_type", string(appErr.Type),
		"code", appErr.Code(),
		"status", appErr.StatusCode,
		"request_id", requestID,
		logger.WithTraceContext(r.Context()),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if suggestion := appErr.RecoverySuggestion(); suggestion != "" {
		attrs = append(attrs, "suggestion", suggestion)
	}

	if appErr.IsServerError() {
		slog.ErrorContext(r.Context(), appErr.Message, attrs...)
		sentry.CaptureError(r.Context(), appErr, map[string]string{
			"error_type": string(appErr.Type),
			"request_id": requestID,
		})
	} else {
		slog.WarnContext(r.Context(), appErr.Message, attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:      appErr.Message,
		Code:       appErr.Code(),
		Suggestion: appErr.RecoverySuggestion(),
	})
}
