package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/services/assemblyai"
)

// Outcome is the successful result of a transcription request.
type Outcome struct {
	Job      *Job
	Text     string
	Duration time.Duration
}

type stage string

const (
	stageUpload stage = "upload"
	stageSubmit stage = "submit"
	stagePoll   stage = "poll"
)

// errMaxWaitExceeded is the cancellation cause set when the poll loop runs
// past its configured maximum wait.
var errMaxWaitExceeded = stderrors.New("maximum transcription wait exceeded")

// MapResult turns the poller's result into exactly one of an Outcome or an
// *errors.AppError. Duration runs from startedAt to observedAt.
func MapResult(startedAt, observedAt time.Time, job *Job, err error) (*Outcome, error) {
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr
		}
		return nil, errors.NewTransportError("failed to reach transcription provider", "TRANSPORT_FAILED", err)
	}
	if job == nil {
		return nil, errors.NewInternalError("no transcript was produced", "TRANSCRIPT_MISSING", nil)
	}

	switch job.Status {
	case JobCompleted:
		return &Outcome{
			Job:      job,
			Text:     job.Text,
			Duration: observedAt.Sub(startedAt),
		}, nil
	case JobFailed:
		return nil, errJobFailed(job)
	default:
		return nil, errors.NewInternalError(fmt.Sprintf("transcript %s is not terminal (status %s)", job.ID, job.Status), "TRANSCRIPT_NOT_TERMINAL", nil)
	}
}

// classify maps a stage failure onto the error taxonomy. Context errors win
// over everything else, provider-reported errors map per stage and anything
// left is a transport failure.
func classify(ctx context.Context, st stage, err error) error {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if context.Cause(ctx) == errMaxWaitExceeded || stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.NewTimeoutError("timed out waiting for the transcription to finish", "TRANSCRIPTION_TIMEOUT", context.Cause(ctx))
		}
		return errors.NewCanceledError("transcription request was canceled", "REQUEST_CANCELED", ctxErr)
	}

	var apiErr *assemblyai.APIError
	if stderrors.As(err, &apiErr) {
		switch st {
		case stageUpload:
			return errors.NewUploadError(fmt.Sprintf("upload failed: %s", apiErr.Message), "UPLOAD_REJECTED", err)
		case stageSubmit:
			return errors.NewSubmissionError(fmt.Sprintf("transcription submission failed: %s", apiErr.Message), "SUBMISSION_REJECTED", err)
		default:
			return errors.NewProviderJobError(fmt.Sprintf("failed to fetch transcription status: %s", apiErr.Message), "TRANSCRIPT_LOOKUP_FAILED", err)
		}
	}

	return errors.NewTransportError("failed to reach transcription provider", "TRANSPORT_FAILED", err)
}
