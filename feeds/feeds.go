package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	defaultTimeout  = 10 * time.Second
	maxSummaryRunes = 200
)

// wrapperTagReplacer strips the HTML wrapper tags feeds commonly put around
// item summaries. This is not HTML sanitization, only cosmetic cleanup.
var wrapperTagReplacer = strings.NewReplacer(
	"<p>", "", "</p>", " ",
	"<P>", "", "</P>", " ",
	"<br>", " ", "<br/>", " ", "<br />", " ",
)

// Fetcher retrieves syndication feeds and renders their entries as text.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-source fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// NewFetcher creates a new feed fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		parser:  gofeed.NewParser(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves each feed URL in order and returns the concatenated text
// blocks of at most maxPerSource entries per feed. A source that cannot be
// fetched or parsed contributes nothing; it never fails the whole call. If
// every source fails the result is the empty string.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, maxPerSource int) string {
	var sb strings.Builder

	for _, url := range urls {
		feedCtx, cancel := context.WithTimeout(ctx, f.timeout)
		feed, err := f.parser.ParseURLWithContext(url, feedCtx)
		cancel()
		if err != nil {
			slog.Warn("feed fetch failed", "url", url, "error", err)
			continue
		}

		slog.Info("feed fetched", "source", sourceName(feed, url), "items", len(feed.Items))

		count := maxPerSource
		if count < 0 {
			count = 0
		}
		if count > len(feed.Items) {
			count = len(feed.Items)
		}
		for _, item := range feed.Items[:count] {
			writeEntry(&sb, item)
		}
	}

	return sb.String()
}

func writeEntry(sb *strings.Builder, item *gofeed.Item) {
	title := item.Title
	if title == "" {
		title = "No Title"
	}
	summary := truncateRunes(cleanSummary(item.Description), maxSummaryRunes)
	fmt.Fprintf(sb, "- %s\n  摘要: %s...\n  链接: %s\n\n", title, summary, item.Link)
}

func sourceName(feed *gofeed.Feed, url string) string {
	if feed.Title != "" {
		return feed.Title
	}
	return url
}

func cleanSummary(s string) string {
	s = wrapperTagReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
