package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DEEPSEEK_API_KEY", "EMAIL_SENDER", "EMAIL_APP_PASSWORD", "EMAIL_RECEIVER"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DeepSeekModel != "deepseek-chat" {
		t.Errorf("DeepSeekModel = %q, want deepseek-chat", cfg.DeepSeekModel)
	}
	if cfg.Format != "html" {
		t.Errorf("Format = %q, want html", cfg.Format)
	}
	if cfg.MaxItemsPerFeed != 3 {
		t.Errorf("MaxItemsPerFeed = %d, want 3", cfg.MaxItemsPerFeed)
	}
	if cfg.MaxPapers != 5 {
		t.Errorf("MaxPapers = %d, want 5", cfg.MaxPapers)
	}
	if cfg.FetchTimeoutSecs != 10 {
		t.Errorf("FetchTimeoutSecs = %d, want 10", cfg.FetchTimeoutSecs)
	}
	if len(cfg.Sources["tech"]) != 3 || len(cfg.Sources["finance"]) != 2 || len(cfg.Sources["papers"]) != 2 {
		t.Errorf("unexpected default sources: %v", cfg.Sources)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
deepseek_api_key: sk-test
email_sender: me@qq.com
email_password: secret
email_recipient: you@example.com
format: plain
max_items_per_feed: 7
sources:
  tech:
    - https://example.com/tech.xml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DeepSeekAPIKey != "sk-test" {
		t.Errorf("DeepSeekAPIKey = %q, want sk-test", cfg.DeepSeekAPIKey)
	}
	if cfg.Format != "plain" {
		t.Errorf("Format = %q, want plain", cfg.Format)
	}
	if cfg.MaxItemsPerFeed != 7 {
		t.Errorf("MaxItemsPerFeed = %d, want 7", cfg.MaxItemsPerFeed)
	}
	if len(cfg.Sources["tech"]) != 1 {
		t.Errorf("tech sources = %v, want one entry", cfg.Sources["tech"])
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")
	t.Setenv("EMAIL_SENDER", "env@gmail.com")
	t.Setenv("EMAIL_APP_PASSWORD", "env-secret")
	t.Setenv("EMAIL_RECEIVER", "env-rcpt@example.com")

	path := writeConfig(t, `
deepseek_api_key: sk-file
email_sender: file@qq.com
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DeepSeekAPIKey != "sk-env" {
		t.Errorf("DeepSeekAPIKey = %q, want env value", cfg.DeepSeekAPIKey)
	}
	if cfg.EmailSender != "env@gmail.com" {
		t.Errorf("EmailSender = %q, want env value", cfg.EmailSender)
	}
	if cfg.EmailPassword != "env-secret" {
		t.Errorf("EmailPassword = %q, want env value", cfg.EmailPassword)
	}
	if cfg.EmailRecipient != "env-rcpt@example.com" {
		t.Errorf("EmailRecipient = %q, want env value", cfg.EmailRecipient)
	}
}

func TestValidateFormat(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "format: telegraph\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestValidateBriefingTime(t *testing.T) {
	clearEnv(t)

	for _, tc := range []struct {
		value string
		ok    bool
	}{
		{"07:30", true},
		{"23:59", true},
		{"", true},
		{"24:00", false},
		{"7:30", false},
		{"noon", false},
	} {
		path := writeConfig(t, "briefing_time: \""+tc.value+"\"\n")
		_, err := Load(path)
		if tc.ok && err != nil {
			t.Errorf("briefing_time %q: unexpected error %v", tc.value, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("briefing_time %q: expected error", tc.value)
		}
	}
}

func TestValidateItemLimits(t *testing.T) {
	clearEnv(t)

	for _, content := range []string{
		"max_items_per_feed: -1\n",
		"max_papers: -3\n",
	} {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Errorf("config %q should be rejected", content)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "timezone: Mars/Olympus\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}
