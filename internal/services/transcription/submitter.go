package transcription

import (
	"context"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/services/assemblyai"
)

// JobOptions are fixed per deployment and sent with every submission.
type JobOptions struct {
	SpeakerLabels bool
	LanguageCode  string
}

// Submitter creates transcription jobs.
type Submitter struct {
	provider Provider
	options  JobOptions
}

func NewSubmitter(provider Provider, options JobOptions) *Submitter {
	return &Submitter{provider: provider, options: options}
}

// Submit creates a job for audioURL and returns its identifier.
func (s *Submitter) Submit(ctx context.Context, audioURL string) (string, error) {
	t, err := s.provider.CreateTranscript(ctx, assemblyai.TranscriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: s.options.SpeakerLabels,
		LanguageCode:  s.options.LanguageCode,
	})
	if err != nil {
		return "", classify(ctx, stageSubmit, err)
	}
	if t.ID == "" {
		return "", errors.NewSubmissionError("provider accepted the job but returned no identifier", "SUBMISSION_ID_MISSING", nil)
	}
	return t.ID, nil
}
