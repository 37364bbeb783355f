package transcription

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/murmur-app/murmur/internal/config"
	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/httpclient"
	"github.com/murmur-app/murmur/internal/logger"
	"github.com/murmur-app/murmur/internal/metrics"
	"github.com/murmur-app/murmur/internal/services/assemblyai"
	"github.com/murmur-app/murmur/internal/telemetry"
)

// Options configures a Service.
type Options struct {
	Job  JobOptions
	Poll PollConfig
	// MaxWait bounds the poll loop. Zero or negative means no bound.
	MaxWait time.Duration
	// MaxConcurrentJobs caps requests orchestrated at once. Zero means no cap.
	MaxConcurrentJobs int
}

// Service runs the resolve, submit, poll and map sequence for one request.
type Service struct {
	resolver  *Resolver
	submitter *Submitter
	poller    *Poller

	maxWait   time.Duration
	sem       *semaphore.Weighted
	configErr error
	inFlight  atomic.Int64
	now       func() time.Time
	tracer    trace.Tracer
}

// NewService builds a Service around provider. A zero Poll config uses
// DefaultPollConfig.
func NewService(provider Provider, opts Options) *Service {
	if opts.Poll == (PollConfig{}) {
		opts.Poll = DefaultPollConfig()
	}
	s := &Service{
		resolver:  NewResolver(provider),
		submitter: NewSubmitter(provider, opts.Job),
		poller:    NewPoller(provider, opts.Poll),
		maxWait:   opts.MaxWait,
		now:       time.Now,
		tracer:    telemetry.Tracer("transcription"),
	}
	if opts.MaxConcurrentJobs > 0 {
		s.sem = semaphore.NewWeighted(int64(opts.MaxConcurrentJobs))
	}
	return s
}

// New builds a Service backed by the AssemblyAI client from cfg. When cfg
// has no credential the Service is still returned, but every call to
// Transcribe fails with a configuration error and makes no network call.
func New(cfg *config.Config) *Service {
	tc := cfg.Transcription
	speakerLabels := true
	if tc.SpeakerLabels != nil {
		speakerLabels = *tc.SpeakerLabels
	}

	client := assemblyai.NewClient(
		cfg.AssemblyAIKey,
		cfg.AssemblyAIBaseURL,
		httpclient.NewInstrumentedClient(tc.RequestTimeout),
	)
	s := NewService(client, Options{
		Job: JobOptions{
			SpeakerLabels: speakerLabels,
			LanguageCode:  tc.LanguageCode,
		},
		Poll: PollConfig{
			Interval:    tc.PollInterval,
			MaxInterval: tc.MaxPollInterval,
			Multiplier:  tc.PollBackoffMultiplier,
		},
		MaxWait:           tc.MaxWait,
		MaxConcurrentJobs: tc.MaxConcurrentJobs,
	})

	if err := cfg.Validate(); err != nil {
		s.configErr = errors.NewConfigurationError("transcription provider API key is not configured on the server", "MISSING_API_KEY", err)
	}
	return s
}

// Ready returns the configuration error that makes every request fail, or
// nil when the service can transcribe.
func (s *Service) Ready() error {
	return s.configErr
}

// InFlight returns the number of requests currently being orchestrated.
func (s *Service) InFlight() int64 {
	return s.inFlight.Load()
}

// Transcribe runs one request to completion. It returns either an Outcome or
// an *errors.AppError, never both.
func (s *Service) Transcribe(ctx context.Context, req Request) (outcome *Outcome, err error) {
	if s.configErr != nil {
		return nil, s.configErr
	}
	if !req.Source.IsPresent() {
		return nil, errMissingInput()
	}

	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = s.now()
	}

	ctx, span := s.tracer.Start(ctx, "transcription.Transcribe",
		trace.WithAttributes(attribute.String("audio.source", string(req.Source.Kind))),
	)
	defer span.End()

	defer func() {
		result := "completed"
		if err != nil {
			result = "error"
			if appErr, ok := errors.As(err); ok {
				result = string(appErr.Type)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.RecordTranscription(ctx, string(req.Source.Kind), result, s.now().Sub(startedAt))
	}()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, classify(ctx, stageUpload, err)
		}
		defer s.sem.Release(1)
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	metrics.JobsInFlight.Add(ctx, 1)
	defer metrics.JobsInFlight.Add(ctx, -1)

	audioURL, err := s.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return MapResult(startedAt, s.now(), nil, err)
	}

	jobID, err := s.submitter.Submit(ctx, audioURL)
	if err != nil {
		return MapResult(startedAt, s.now(), nil, err)
	}
	span.SetAttributes(attribute.String("transcript.id", jobID))
	slog.InfoContext(ctx, "Transcript submitted", "job_id", jobID, "source", string(req.Source.Kind), logger.WithTraceContext(ctx))

	pollCtx := ctx
	if s.maxWait > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeoutCause(ctx, s.maxWait, errMaxWaitExceeded)
		defer cancel()
	}

	job, err := s.poller.Wait(pollCtx, jobID)
	return MapResult(startedAt, s.now(), job, err)
}
