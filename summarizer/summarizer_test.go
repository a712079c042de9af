package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func chatServer(t *testing.T, content string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSummarize(t *testing.T) {
	server := chatServer(t, "## 标题\n正文", nil)

	s := NewSummarizer("sk-test", WithBaseURL(server.URL))
	got, err := s.Summarize(context.Background(), "tech block", "finance block", "paper block")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "## 标题\n正文" {
		t.Errorf("Summarize = %q, want completion verbatim", got)
	}
}

func TestSummarizeRequestShape(t *testing.T) {
	var captured chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", WithBaseURL(server.URL), WithModel("deepseek-reasoner"))
	if _, err := s.Summarize(context.Background(), "TECH", "FINANCE", "PAPERS"); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want bearer credential", auth)
	}
	if captured.Model != "deepseek-reasoner" {
		t.Errorf("model = %q, want deepseek-reasoner", captured.Model)
	}
	if captured.Stream {
		t.Error("stream must be disabled")
	}
	if captured.Temperature != temperature {
		t.Errorf("temperature = %v, want %v", captured.Temperature, temperature)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	user := captured.Messages[1].Content
	for _, block := range []string{"TECH", "FINANCE", "PAPERS"} {
		if !strings.Contains(user, block) {
			t.Errorf("prompt is missing the %s block", block)
		}
	}
	for _, section := range []string{"金融市场", "科技前沿", "论文速递", "深度洞察"} {
		if !strings.Contains(user, section) {
			t.Errorf("prompt is missing required section %q", section)
		}
	}
}

func TestSummarizeMissingAPIKey(t *testing.T) {
	var calls atomic.Int64
	server := chatServer(t, "should never be returned", &calls)

	s := NewSummarizer("", WithBaseURL(server.URL))
	_, err := s.Summarize(context.Background(), "t", "f", "p")

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend was called %d times, want 0", calls.Load())
	}
}

func TestSummarizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", WithBaseURL(server.URL))
	_, err := s.Summarize(context.Background(), "t", "f", "p")
	if err == nil {
		t.Fatal("expected error for backend failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status, got %v", err)
	}
}

func TestSummarizeEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", WithBaseURL(server.URL))
	if _, err := s.Summarize(context.Background(), "t", "f", "p"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestSummarizeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	s := NewSummarizer("sk-test", WithBaseURL(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Summarize(ctx, "t", "f", "p"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDefaultSummarizer(t *testing.T) {
	s := NewSummarizer("sk-test")
	if s.model != "deepseek-chat" {
		t.Errorf("default model = %q, want deepseek-chat", s.model)
	}
	if s.baseURL != defaultBaseURL {
		t.Errorf("default base URL = %q, want %q", s.baseURL, defaultBaseURL)
	}
}
