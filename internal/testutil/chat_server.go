package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ChatCall is one request received by a ChatServer.
type ChatCall struct {
	Authorization string
	RequestID     string
	Model         string
	Temperature   float64
	Prompt        string
}

// ChatServer is an OpenAI-compatible chat completions endpoint for tests.
// Respond decides the status and content for each prompt.
type ChatServer struct {
	URL     string
	mu      sync.Mutex
	calls   []ChatCall
	respond func(prompt string) (int, string)
}

// NewChatServer starts a server that answers every prompt through respond.
// The server is closed when the test ends.
func NewChatServer(t testing.TB, respond func(prompt string) (status int, content string)) *ChatServer {
	t.Helper()
	s := &ChatServer{respond: respond}
	server := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(server.Close)
	s.URL = server.URL
	return s
}

// Calls returns the requests received so far.
func (s *ChatServer) Calls() []ChatCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var payload struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Messages) == 0 {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
		return
	}
	call := ChatCall{
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Model:         payload.Model,
		Temperature:   payload.Temperature,
		Prompt:        payload.Messages[len(payload.Messages)-1].Content,
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	status, content := s.respond(call.Prompt)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 200 && status < 300 {
		encoded, _ := json.Marshal(content)
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, encoded)
		return
	}
	encoded, _ := json.Marshal(content)
	fmt.Fprintf(w, `{"error":{"message":%s,"type":"test"}}`, encoded)
}
