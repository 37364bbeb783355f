package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/murmur-app/murmur/internal/httpclient"
	"github.com/murmur-app/murmur/internal/metrics"
)

// ProviderName tags spans and metrics for calls made by this client.
const ProviderName = "assemblyai"

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 16 << 20

// Client talks to the AssemblyAI v2 REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new AssemblyAI client. A nil httpClient gets an
// instrumented client with the given timeout.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(3 * time.Minute)
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Upload streams raw audio bytes to the provider and returns the upload URL.
func (c *Client) Upload(ctx context.Context, body io.Reader) (string, error) {
	var out uploadResponse
	status, err := c.do(ctx, "upload", http.MethodPost, "/upload", body, "application/octet-stream", &out, nil)
	if err != nil {
		return "", err
	}
	if msg := errorMessage(out.Error); msg != "" {
		return "", &APIError{Operation: "upload", StatusCode: status, Message: msg}
	}
	return out.UploadURL, nil
}

// CreateTranscript submits a transcription job.
func (c *Client) CreateTranscript(ctx context.Context, req TranscriptRequest) (*Transcript, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript request: %w", err)
	}

	var out transcriptResponse
	var raw json.RawMessage
	status, err := c.do(ctx, "create_transcript", http.MethodPost, "/transcript", bytes.NewReader(payload), "application/json", &out, &raw)
	if err != nil {
		return nil, err
	}
	if msg := errorMessage(out.Error); msg != "" {
		return nil, &APIError{Operation: "create_transcript", StatusCode: status, Message: msg}
	}
	return out.toTranscript(raw), nil
}

// GetTranscript fetches the current state of a transcription job. An "error"
// field on a transcript whose status is "error" is the job's failure detail,
// not a failed lookup.
func (c *Client) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	var out transcriptResponse
	var raw json.RawMessage
	status, err := c.do(ctx, "get_transcript", http.MethodGet, "/transcript/"+url.PathEscape(id), nil, "", &out, &raw)
	if err != nil {
		return nil, err
	}
	t := out.toTranscript(raw)
	if t.Error != "" && t.Status != StatusError {
		return nil, &APIError{Operation: "get_transcript", StatusCode: status, Message: t.Error}
	}
	return t, nil
}

func (r transcriptResponse) toTranscript(raw json.RawMessage) *Transcript {
	t := &Transcript{
		ID:     r.ID,
		Status: r.Status,
		Error:  errorMessage(r.Error),
		Raw:    raw,
	}
	if r.Text != nil {
		t.Text = *r.Text
	}
	return t
}

// do performs one provider call and decodes the JSON body into out. Non-2xx
// responses become *APIError, using the body's "error" field when present.
// Network failures are returned as-is.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any, raw *json.RawMessage) (int, error) {
	startTime := time.Now()
	var callErr error
	defer func() {
		metrics.RecordExternalCall(ctx, ProviderName, op, startTime, callErr)
	}()

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, ProviderName), method, c.baseURL+path, body)
	if err != nil {
		callErr = err
		return 0, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr = err
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		callErr = err
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error json.RawMessage `json:"error"`
		}
		msg := ""
		if json.Unmarshal(respBody, &errBody) == nil {
			msg = errorMessage(errBody.Error)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		callErr = &APIError{Operation: op, StatusCode: resp.StatusCode, Message: msg}
		return resp.StatusCode, callErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		callErr = &APIError{Operation: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
		return resp.StatusCode, callErr
	}
	if raw != nil {
		*raw = json.RawMessage(respBody)
	}
	return resp.StatusCode, nil
}
