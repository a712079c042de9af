package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Briefing categories. The set is fixed; sources are configured per category.
const (
	CategoryTech    = "tech"
	CategoryFinance = "finance"
	CategoryPapers  = "papers"
)

// maxCategoryRunes caps each category buffer before it is embedded in the
// summarization prompt. The cut is a plain prefix, so the last item of a
// busy category may appear truncated; the backend copes with that.
const maxCategoryRunes = 4000

// Aggregate truncates each category block to the category budget. It performs
// no other transformation and is idempotent.
func Aggregate(blocks map[string]string) map[string]string {
	out := make(map[string]string, len(blocks))
	for category, text := range blocks {
		runes := []rune(text)
		if len(runes) > maxCategoryRunes {
			text = string(runes[:maxCategoryRunes])
		}
		out[category] = text
	}
	return out
}

// FeedFetcher retrieves feed entries as a text block.
type FeedFetcher interface {
	Fetch(ctx context.Context, urls []string, maxPerSource int) string
}

// PaperFetcher retrieves the paper listing as a text block.
type PaperFetcher interface {
	FetchPapers(ctx context.Context, maxItems int) string
}

// Summarizer produces the briefing report from the category blocks.
type Summarizer interface {
	Summarize(ctx context.Context, tech, finance, papers string) (string, error)
}

// Formatter renders the report into delivery body fields.
type Formatter interface {
	Format(report string) (plainText, htmlBody string)
}

// Mailer delivers the formatted briefing.
type Mailer interface {
	Deliver(subject, plainText, htmlBody string) error
}

// Runner orchestrates one briefing run: fetch, aggregate, summarize, format,
// deliver. Stages run strictly forward; a summarization failure aborts the
// run before anything is sent.
type Runner struct {
	feeds      FeedFetcher
	papers     PaperFetcher
	summarizer Summarizer
	formatter  Formatter
	mailer     Mailer

	sources         map[string][]string
	maxItemsPerFeed int
	maxPapers       int
}

// Option configures a Runner.
type Option func(*Runner)

// WithSources sets the category feed URL lists.
func WithSources(sources map[string][]string) Option {
	return func(r *Runner) {
		r.sources = sources
	}
}

// WithMaxItemsPerFeed sets how many entries each feed contributes.
func WithMaxItemsPerFeed(n int) Option {
	return func(r *Runner) {
		r.maxItemsPerFeed = n
	}
}

// WithMaxPapers sets how many papers the listing contributes.
func WithMaxPapers(n int) Option {
	return func(r *Runner) {
		r.maxPapers = n
	}
}

// NewRunner creates a briefing runner.
func NewRunner(
	feeds FeedFetcher,
	papers PaperFetcher,
	summarizer Summarizer,
	formatter Formatter,
	mailer Mailer,
	opts ...Option,
) *Runner {
	r := &Runner{
		feeds:           feeds,
		papers:          papers,
		summarizer:      summarizer,
		formatter:       formatter,
		mailer:          mailer,
		sources:         map[string][]string{},
		maxItemsPerFeed: 3,
		maxPapers:       5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one briefing. Individual source failures have already been
// absorbed by the fetchers; only a summarization or delivery failure makes
// Run return an error, and by the time delivery runs the report has been
// produced.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("starting briefing run")

	techText := r.feeds.Fetch(ctx, r.sources[CategoryTech], r.maxItemsPerFeed)
	financeText := r.feeds.Fetch(ctx, r.sources[CategoryFinance], r.maxItemsPerFeed)

	// The papers category combines the curated listing with the paper feeds.
	paperText := r.papers.FetchPapers(ctx, r.maxPapers) + "\n" +
		r.feeds.Fetch(ctx, r.sources[CategoryPapers], r.maxItemsPerFeed)

	blocks := Aggregate(map[string]string{
		CategoryTech:    techText,
		CategoryFinance: financeText,
		CategoryPapers:  paperText,
	})
	slog.Info("sources aggregated",
		"tech_chars", len([]rune(blocks[CategoryTech])),
		"finance_chars", len([]rune(blocks[CategoryFinance])),
		"paper_chars", len([]rune(blocks[CategoryPapers])))

	report, err := r.summarizer.Summarize(ctx,
		blocks[CategoryTech], blocks[CategoryFinance], blocks[CategoryPapers])
	if err != nil {
		return fmt.Errorf("summarize briefing: %w", err)
	}
	slog.Info("briefing produced", "chars", len(report))

	plainText, htmlBody := r.formatter.Format(report)
	subject := fmt.Sprintf("【AI日报】%s 科技金融与论文简报", time.Now().Format("2006-01-02"))

	if err := r.mailer.Deliver(subject, plainText, htmlBody); err != nil {
		return fmt.Errorf("deliver briefing: %w", err)
	}
	slog.Info("briefing delivered", "subject", subject)
	return nil
}
