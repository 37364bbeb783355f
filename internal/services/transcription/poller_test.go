package transcription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/services/assemblyai"
)

func fastPoll(interval time.Duration) PollConfig {
	return PollConfig{Interval: interval, MaxInterval: interval, Multiplier: 1}
}

func TestPoller_ProcessingThenCompleted(t *testing.T) {
	const interval = 20 * time.Millisecond

	for _, n := range []int{0, 1, 3} {
		script := make([]*assemblyai.Transcript, 0, n+1)
		for i := 0; i < n; i++ {
			script = append(script, processing())
		}
		script = append(script, completed("bonjour le monde"))

		provider := &scriptedProvider{statuses: script}
		job, err := NewPoller(provider, fastPoll(interval)).Wait(context.Background(), "J1")

		require.NoError(t, err)
		assert.Equal(t, JobCompleted, job.Status)
		assert.Equal(t, "bonjour le monde", job.Text)
		assert.Equal(t, n+1, provider.getCalls, "expected N+1 status calls for N=%d", n)

		for i := 1; i < len(provider.getTimes); i++ {
			gap := provider.getTimes[i].Sub(provider.getTimes[i-1])
			assert.GreaterOrEqual(t, gap, interval, "gap between poll %d and %d", i-1, i)
		}
		for _, id := range provider.getJobIDs {
			assert.Equal(t, "J1", id)
		}
	}
}

func TestPoller_FailedStopsImmediately(t *testing.T) {
	provider := &scriptedProvider{statuses: []*assemblyai.Transcript{failed("decode error"), completed("never")}}

	job, err := NewPoller(provider, fastPoll(time.Millisecond)).Wait(context.Background(), "J2")

	require.Error(t, err)
	assert.Equal(t, 1, provider.getCalls)
	require.NotNil(t, job)
	assert.Equal(t, JobFailed, job.Status)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeProviderJob, appErr.Type)
	assert.Contains(t, appErr.Message, "decode error")
}

func TestPoller_UnknownStatusKeepsWaiting(t *testing.T) {
	provider := &scriptedProvider{statuses: []*assemblyai.Transcript{
		{Status: assemblyai.StatusQueued},
		{Status: "transcoding"},
		completed("ok"),
	}}

	job, err := NewPoller(provider, fastPoll(time.Millisecond)).Wait(context.Background(), "J3")
	require.NoError(t, err)
	assert.Equal(t, "ok", job.Text)
	assert.Equal(t, 3, provider.getCalls)
}

func TestPoller_ContextCanceled(t *testing.T) {
	provider := &scriptedProvider{} // processing forever
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := NewPoller(provider, fastPoll(10*time.Second)).Wait(ctx, "J4")

	assert.Less(t, time.Since(start), 5*time.Second, "wait must stop when the caller goes away")
	assert.Equal(t, 1, provider.getCalls)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCanceled), "got %v", err)
}

func TestPoller_MaxWaitCause(t *testing.T) {
	provider := &scriptedProvider{}
	ctx, cancel := context.WithTimeoutCause(context.Background(), 30*time.Millisecond, errMaxWaitExceeded)
	defer cancel()

	_, err := NewPoller(provider, fastPoll(5*time.Millisecond)).Wait(ctx, "J5")

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeTimeout, appErr.Type)
	assert.ErrorIs(t, err, errMaxWaitExceeded)
}

func TestPoller_LookupError(t *testing.T) {
	provider := &scriptedProvider{getErr: &assemblyai.APIError{Operation: "get_transcript", StatusCode: 404, Message: "Transcript not found"}}

	_, err := NewPoller(provider, fastPoll(time.Millisecond)).Wait(context.Background(), "missing")

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeProviderJob, appErr.Type)
	assert.Equal(t, "TRANSCRIPT_LOOKUP_FAILED", appErr.Code())
	assert.Equal(t, 1, provider.getCalls)
}

func TestPollConfig_Schedule(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		b := DefaultPollConfig().newBackOff()
		for i := 0; i < 5; i++ {
			assert.Equal(t, 3*time.Second, b.NextBackOff())
		}
	})

	t.Run("capped exponential", func(t *testing.T) {
		b := PollConfig{Interval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 2}.newBackOff()
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
		for i, w := range want {
			assert.Equal(t, w, b.NextBackOff(), "step %d", i)
		}
	})

	t.Run("zero interval falls back to default", func(t *testing.T) {
		b := PollConfig{}.newBackOff()
		assert.Equal(t, DefaultPollInterval, b.NextBackOff())
	})
}

func TestStatusFromProvider(t *testing.T) {
	assert.Equal(t, JobPending, statusFromProvider("queued"))
	assert.Equal(t, JobProcessing, statusFromProvider("processing"))
	assert.Equal(t, JobCompleted, statusFromProvider("completed"))
	assert.Equal(t, JobFailed, statusFromProvider("error"))
	assert.Equal(t, JobPending, statusFromProvider("something-new"))
	assert.True(t, JobFailed.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
}
