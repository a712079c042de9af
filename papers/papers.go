package papers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://huggingface.co/api/daily_papers"
	maxSummaryRunes = 200
	sectionHeader   = "--- Hugging Face Daily Papers ---\n"
)

// Placeholder strings used when the listing endpoint degrades. The pipeline
// continues with these instead of failing the run.
const (
	placeholderUnavailable = "无法获取 Hugging Face 数据。"
	placeholderErrorPrefix = "获取 Hugging Face 数据时出错: "
)

// paper is one element of the daily-papers listing.
type paper struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Paper   struct {
		ID string `json:"id"`
	} `json:"paper"`
}

// Client fetches the curated daily-papers listing.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom listing URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new daily-papers client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPapers retrieves the listing and renders at most maxItems entries as
// text, in listing order. Any failure degrades to a placeholder string so the
// run can continue with reduced content; FetchPapers never returns an error.
func (c *Client) FetchPapers(ctx context.Context, maxItems int) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		slog.Warn("paper listing request failed", "error", err)
		return placeholderErrorPrefix + err.Error()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("paper listing fetch failed", "url", c.baseURL, "error", err)
		return placeholderErrorPrefix + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("paper listing returned non-200", "status", resp.StatusCode)
		return placeholderUnavailable
	}

	var listing []paper
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		slog.Warn("paper listing decode failed", "error", err)
		return placeholderErrorPrefix + err.Error()
	}

	slog.Info("paper listing fetched", "papers", len(listing))

	if maxItems < 0 {
		maxItems = 0
	}
	if maxItems < len(listing) {
		listing = listing[:maxItems]
	}

	var sb strings.Builder
	sb.WriteString(sectionHeader)
	for _, p := range listing {
		writePaper(&sb, p)
	}
	return sb.String()
}

func writePaper(sb *strings.Builder, p paper) {
	title := p.Title
	if title == "" {
		title = "No Title"
	}
	summary := p.Summary
	if summary == "" {
		summary = "No summary"
	}
	summary = truncateRunes(strings.ReplaceAll(summary, "\n", " "), maxSummaryRunes)

	link := "No Link"
	if p.Paper.ID != "" {
		link = "https://huggingface.co/papers/" + p.Paper.ID
	}

	fmt.Fprintf(sb, "题目: %s\n链接: %s\n摘要: %s...\n\n", title, link, summary)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
