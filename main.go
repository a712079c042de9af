package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-briefing/config"
	"daily-briefing/digest"
	"daily-briefing/feeds"
	"daily-briefing/format"
	"daily-briefing/mailer"
	"daily-briefing/papers"
	"daily-briefing/scheduler"
	"daily-briefing/summarizer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting daily briefing")

	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "path", configPath, "format", cfg.Format)

	mode, err := format.ParseMode(cfg.Format)
	if err != nil {
		slog.Error("invalid format mode", "error", err)
		os.Exit(1)
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second

	runner := digest.NewRunner(
		feeds.NewFetcher(feeds.WithTimeout(fetchTimeout)),
		papers.NewClient(
			papers.WithBaseURL(cfg.PapersAPI),
			papers.WithTimeout(fetchTimeout),
		),
		summarizer.NewSummarizer(cfg.DeepSeekAPIKey, summarizer.WithModel(cfg.DeepSeekModel)),
		&formatterAdapter{format.New(mode)},
		mailer.NewMailer(cfg.EmailSender, cfg.EmailPassword, cfg.EmailRecipient),
		digest.WithSources(cfg.Sources),
		digest.WithMaxItemsPerFeed(cfg.MaxItemsPerFeed),
		digest.WithMaxPapers(cfg.MaxPapers),
	)

	if cfg.BriefingTime == "" {
		// One-shot run; recurring execution is left to an external scheduler.
		if err := runner.Run(context.Background()); err != nil {
			slog.Error("briefing run failed", "error", err)
		}
		slog.Info("daily briefing finished")
		return
	}

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	if err := sched.ScheduleDaily(cfg.BriefingTime, func() {
		if err := runner.Run(context.Background()); err != nil {
			slog.Error("briefing run failed", "error", err)
		}
	}); err != nil {
		slog.Error("failed to schedule briefing", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	slog.Info("briefing scheduled", "time", cfg.BriefingTime, "timezone", cfg.Timezone)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received shutdown signal", "signal", sig.String())
}

// formatterAdapter bridges format.Formatter to the digest.Formatter interface.
type formatterAdapter struct {
	formatter *format.Formatter
}

func (a *formatterAdapter) Format(report string) (string, string) {
	msg := a.formatter.Format(report)
	return msg.PlainText, msg.HTML
}
