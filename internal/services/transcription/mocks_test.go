package transcription

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/murmur-app/murmur/internal/services/assemblyai"
)

// scriptedProvider is a Provider that replays canned responses and records
// every call it receives.
type scriptedProvider struct {
	mu sync.Mutex

	uploadURL   string
	uploadErr   error
	uploadCalls int
	uploaded    []byte

	createErr   error
	createIDs   []string
	createCalls []assemblyai.TranscriptRequest

	// statuses is consumed one entry per GetTranscript call; the last entry
	// repeats once the script runs out.
	statuses  []*assemblyai.Transcript
	getErr    error
	getCalls  int
	getTimes  []time.Time
	getJobIDs []string
}

func (p *scriptedProvider) Upload(ctx context.Context, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploadCalls++
	p.uploaded = data
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	return p.uploadURL, nil
}

func (p *scriptedProvider) CreateTranscript(ctx context.Context, req assemblyai.TranscriptRequest) (*assemblyai.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls = append(p.createCalls, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	id := fmt.Sprintf("job-%d", len(p.createCalls))
	if len(p.createIDs) >= len(p.createCalls) {
		id = p.createIDs[len(p.createCalls)-1]
	}
	return &assemblyai.Transcript{ID: id, Status: assemblyai.StatusQueued}, nil
}

func (p *scriptedProvider) GetTranscript(ctx context.Context, id string) (*assemblyai.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	p.getTimes = append(p.getTimes, time.Now())
	p.getJobIDs = append(p.getJobIDs, id)
	if p.getErr != nil {
		return nil, p.getErr
	}
	if len(p.statuses) == 0 {
		return &assemblyai.Transcript{ID: id, Status: assemblyai.StatusProcessing}, nil
	}
	idx := p.getCalls - 1
	if idx >= len(p.statuses) {
		idx = len(p.statuses) - 1
	}
	t := *p.statuses[idx]
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

func (p *scriptedProvider) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploadCalls + len(p.createCalls) + p.getCalls
}

func processing() *assemblyai.Transcript {
	return &assemblyai.Transcript{Status: assemblyai.StatusProcessing}
}

func completed(text string) *assemblyai.Transcript {
	raw := fmt.Sprintf(`{"status": "completed", "text": %q}`, text)
	return &assemblyai.Transcript{Status: assemblyai.StatusCompleted, Text: text, Raw: []byte(raw)}
}

func failed(detail string) *assemblyai.Transcript {
	return &assemblyai.Transcript{Status: assemblyai.StatusError, Error: detail}
}
