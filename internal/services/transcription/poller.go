package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/logger"
	"github.com/murmur-app/murmur/internal/metrics"
)

// DefaultPollInterval is the delay between two status checks.
const DefaultPollInterval = 3 * time.Second

// PollConfig controls the delay between status checks. With a Multiplier of
// 1 (or less) the delay is fixed at Interval; otherwise it grows by
// Multiplier after each check up to MaxInterval.
type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
}

// DefaultPollConfig polls every DefaultPollInterval with no backoff.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    DefaultPollInterval,
		MaxInterval: DefaultPollInterval,
		Multiplier:  1,
	}
}

func (c PollConfig) newBackOff() backoff.BackOff {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if c.Multiplier <= 1 {
		return backoff.NewConstantBackOff(interval)
	}

	maxInterval := c.MaxInterval
	if maxInterval < interval {
		maxInterval = interval
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Poller waits for a job to reach a terminal state.
type Poller struct {
	provider Provider
	config   PollConfig
}

func NewPoller(provider Provider, config PollConfig) *Poller {
	return &Poller{provider: provider, config: config}
}

// Wait re-reads the job until it is completed or failed. A completed job is
// returned with a nil error; a failed job is returned together with a
// provider job error and no further status calls are made. The loop ends
// early when ctx is done.
func (p *Poller) Wait(ctx context.Context, jobID string) (*Job, error) {
	b := p.config.newBackOff()
	polls := 0

	for {
		polls++
		metrics.TranscriptPollsTotal.Add(ctx, 1)

		t, err := p.provider.GetTranscript(ctx, jobID)
		if err != nil {
			return nil, classify(ctx, stagePoll, err)
		}
		job := jobFromTranscript(t)
		if job.ID == "" {
			job.ID = jobID
		}

		if job.Status.IsTerminal() {
			if job.Status == JobFailed {
				slog.WarnContext(ctx, "Transcript failed", "job_id", jobID, "polls", polls, "error", job.ErrorDetail, logger.WithTraceContext(ctx))
				return job, errJobFailed(job)
			}
			slog.InfoContext(ctx, "Transcript completed", "job_id", jobID, "polls", polls, logger.WithTraceContext(ctx))
			return job, nil
		}

		delay := b.NextBackOff()
		slog.DebugContext(ctx, "Transcript not ready", "job_id", jobID, "status", string(job.Status), "next_poll_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, classify(ctx, stagePoll, ctx.Err())
		case <-timer.C:
		}
	}
}

func errJobFailed(job *Job) error {
	detail := job.ErrorDetail
	if detail == "" {
		detail = "no detail provided"
	}
	return errors.NewProviderJobError(fmt.Sprintf("transcription failed: %s", detail), "TRANSCRIPT_FAILED", nil)
}
