package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
hotstreak:
  base_url: "https://example.test/graphql"
  sport_gid: "U1BPUlQ"
  timeout: 5s
  headers:
    x-custom: "1"
pipeline:
  interval: 30s
  workers: 8
  test_limit: 10
postgres:
  dsn: "postgres://u:p@localhost/db"
telegram:
  bot_token: "token"
  chat_id: 42
logging:
  level: "DEBUG"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Hotstreak.BaseURL != "https://example.test/graphql" {
		t.Errorf("BaseURL = %q", cfg.Hotstreak.BaseURL)
	}
	if cfg.Hotstreak.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Hotstreak.Timeout)
	}
	if cfg.Hotstreak.Headers["x-custom"] != "1" {
		t.Errorf("Headers = %v", cfg.Hotstreak.Headers)
	}
	if cfg.Pipeline.Workers != 8 || cfg.Pipeline.TestLimit != 10 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Errorf("ChatID = %d", cfg.Telegram.ChatID)
	}

	// Дефолты для незаданных полей.
	if cfg.Hotstreak.WebURL != "https://hs3.hotstreak.gg" {
		t.Errorf("WebURL default = %q", cfg.Hotstreak.WebURL)
	}
	if cfg.Export.BaseDir != "data" || cfg.Export.LatestDir != "odd_object" {
		t.Errorf("Export defaults = %+v", cfg.Export)
	}
	if cfg.Hotstreak.BrowserTimeout != 45*time.Second {
		t.Errorf("BrowserTimeout default = %v", cfg.Hotstreak.BrowserTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("hotstreak: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
