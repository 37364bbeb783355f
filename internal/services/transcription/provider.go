package transcription

import (
	"context"
	"io"

	"github.com/murmur-app/murmur/internal/services/assemblyai"
)

// Provider is the remote speech-to-text service the orchestrator drives.
// *assemblyai.Client implements it.
type Provider interface {
	Upload(ctx context.Context, body io.Reader) (string, error)
	CreateTranscript(ctx context.Context, req assemblyai.TranscriptRequest) (*assemblyai.Transcript, error)
	GetTranscript(ctx context.Context, id string) (*assemblyai.Transcript, error)
}

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is the orchestrator's view of a provider transcript.
type Job struct {
	ID          string
	Status      JobStatus
	Text        string
	ErrorDetail string
	// Raw is the full provider record as last observed.
	Raw []byte
}

func jobFromTranscript(t *assemblyai.Transcript) *Job {
	return &Job{
		ID:          t.ID,
		Status:      statusFromProvider(t.Status),
		Text:        t.Text,
		ErrorDetail: t.Error,
		Raw:         t.Raw,
	}
}

// statusFromProvider maps provider statuses onto JobStatus. Unknown values are
// treated as still pending so the poller keeps waiting.
func statusFromProvider(s string) JobStatus {
	switch s {
	case assemblyai.StatusCompleted:
		return JobCompleted
	case assemblyai.StatusError:
		return JobFailed
	case assemblyai.StatusProcessing:
		return JobProcessing
	default:
		return JobPending
	}
}
