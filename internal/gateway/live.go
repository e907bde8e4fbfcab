package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is the default OpenAI-compatible API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultRequestTimeout bounds a single live call.
const DefaultRequestTimeout = 120 * time.Second

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 512

// HTTPDoer abstracts HTTP clients used by the live gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LiveGateway calls an OpenAI-compatible chat completions endpoint.
type LiveGateway struct {
	APIKey         string
	BaseURL        string
	Client         HTTPDoer
	RequestTimeout time.Duration
	Now            func() time.Time
}

// NewLiveGateway constructs a live gateway. A missing key is a FatalError so
// the run aborts before any question is processed.
func NewLiveGateway(apiKey, baseURL string, client HTTPDoer) (*LiveGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &FatalError{Err: ErrMissingAPIKey}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LiveGateway{
		APIKey:         strings.TrimSpace(apiKey),
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Client:         client,
		RequestTimeout: DefaultRequestTimeout,
		Now:            time.Now,
	}, nil
}

// Answer sends the prompt and returns the first choice's message content.
func (g *LiveGateway) Answer(ctx context.Context, req Request) (Answer, error) {
	if strings.TrimSpace(req.Model) == "" {
		return Answer{}, &FatalError{Err: errors.New("model name is required")}
	}
	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return Answer{}, &FatalError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	if g.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.RequestTimeout)
		defer cancel()
	}
	endpoint := g.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Answer{}, &FatalError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	now := g.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return Answer{}, &TransientError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	latency := now().Sub(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Answer{}, classifyStatus(resp.StatusCode, body)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Answer{}, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(decoded.Choices) == 0 {
		return Answer{}, &TransientError{StatusCode: resp.StatusCode, Err: errors.New("response has no choices")}
	}
	return Answer{Text: decoded.Choices[0].Message.Content, Latency: latency, Timed: true}, nil
}

// classifyStatus maps a non-2xx response to a transient or fatal error.
func classifyStatus(status int, body []byte) error {
	err := errors.New(errorMessage(status, body))
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusConflict,
		status == http.StatusTooManyRequests,
		status >= 500:
		return &TransientError{StatusCode: status, Err: err}
	default:
		return &FatalError{StatusCode: status, Err: err}
	}
}

// errorMessage prefers the API's error.message field over the raw body.
func errorMessage(status int, body []byte) string {
	var decoded chatErrorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
