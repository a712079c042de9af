package format

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Mode selects the delivery encoding of the briefing body.
type Mode string

const (
	ModePlain Mode = "plain"
	ModeHTML  Mode = "html"
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlain, ModeHTML:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown format mode %q", s)
}

// Message is a delivery-ready briefing body. HTML is empty in plain mode.
type Message struct {
	PlainText string
	HTML      string
}

// plainFallback is the text part of an HTML message, shown by mail clients
// that cannot render HTML.
const plainFallback = "您的邮件客户端不支持 HTML 显示。请使用支持 HTML 的客户端查看本简报。"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, "PingFang SC", "Microsoft YaHei", sans-serif; color: #333333; line-height: 1.6; max-width: 720px; margin: 0 auto; padding: 24px; }
h1, h2, h3 { color: #1a5276; }
blockquote { border-left: 4px solid #d0d7de; margin: 0; padding: 0 16px; color: #57606a; }
a { color: #0969da; text-decoration: none; }
.footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid #d0d7de; font-size: 12px; color: #8b949e; }
</style>
</head>
<body>
{{.Body}}
<div class="footer">本简报由自动化流程生成于 {{.GeneratedAt}}</div>
</body>
</html>
`))

// Formatter turns the Markdown-flavored briefing report into a delivery body.
// The report is rendered as Markdown only; nothing in it is evaluated.
type Formatter struct {
	mode Mode
}

// New creates a Formatter for the given mode.
func New(mode Mode) *Formatter {
	return &Formatter{mode: mode}
}

// Format produces the delivery body for the report. Plain mode passes the
// report through unchanged; HTML mode renders it into the styled page
// template and keeps a fallback notice as the text part.
func (f *Formatter) Format(report string) *Message {
	if f.mode == ModePlain {
		return &Message{PlainText: report}
	}

	doc, err := renderPage(report)
	if err != nil {
		slog.Warn("html rendering failed, falling back to plain text", "error", err)
		return &Message{PlainText: report}
	}

	return &Message{
		PlainText: plainFallback,
		HTML:      doc,
	}
}

func renderPage(report string) (string, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := markdown.ToHTML([]byte(report), p, renderer)

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Body        template.HTML
		GeneratedAt string
	}{
		Body:        template.HTML(body),
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
	})
	if err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return buf.String(), nil
}
