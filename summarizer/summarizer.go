package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultModel   = "deepseek-chat"
	defaultBaseURL = "https://api.deepseek.com"

	// Slightly above neutral for a livelier briefing voice.
	temperature = 1.3
)

// ErrMissingAPIKey is returned when no API credential is configured. No
// request is attempted in that case.
var ErrMissingAPIKey = errors.New("deepseek api key is not set")

const systemPrompt = "你是一个乐于助人的专业简报助手。"

const promptTemplate = `你是一个专业的科技与金融情报分析师。请根据以下抓取到的原始数据，为我写一份日报。

【要求】
1. 语言：中文。
2. 格式：清晰的 Markdown 格式。
3. 结构：
   - 🏦 金融市场 (分析市场情绪，重点新闻)
   - 🚀 科技前沿 (大厂动态，新硬件/软件)
   - 📑 论文速递 (重点介绍 Hugging Face 和 arXiv 上有价值的 AI 论文)
   - 💡 深度洞察 (基于以上信息，给出一两句你的独家分析)

【原始数据】
=== 科技新闻 ===
%s

=== 金融新闻 ===
%s

=== 论文数据 ===
%s
`

// Summarizer produces the daily briefing report via the DeepSeek chat API.
type Summarizer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithModel sets the chat model to use.
func WithModel(model string) Option {
	return func(s *Summarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(s *Summarizer) {
		s.baseURL = url
	}
}

// NewSummarizer creates a new DeepSeek-backed summarizer. The backend may
// reason for tens of seconds over a full day of sources, so the client
// timeout is deliberately generous.
func NewSummarizer(apiKey string, opts ...Option) *Summarizer {
	s := &Summarizer{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize sends the three aggregated category blocks to the backend in one
// request and returns the completion text verbatim. The report structure is
// whatever the backend produced; it is not validated here.
func (s *Summarizer) Summarize(ctx context.Context, tech, finance, papers string) (string, error) {
	if s.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, tech, finance, papers)},
		},
		Temperature: temperature,
		Stream:      false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := s.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// DeepSeek chat API types (OpenAI-compatible wire format).

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
