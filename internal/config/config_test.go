package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = ""
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Database.MaxConnections != 5 {
		t.Fatalf("max_connections = %d, want 5", cfg.Database.MaxConnections)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing token", mutate: func(c *Config) { c.Telegram.Token = "" }},
		{name: "bad run mode", mutate: func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{name: "webhook without url", mutate: func(c *Config) {
			c.Telegram.RunMode = RunModeWebhook
			c.Webhook = WebhookConfig{Listen: "0.0.0.0", Port: 8443}
		}},
		{name: "webhook without listen", mutate: func(c *Config) {
			c.Telegram.RunMode = RunModeWebhook
			c.Webhook = WebhookConfig{URL: "https://bot.example.com", Port: 8443}
		}},
		{name: "webhook bad port", mutate: func(c *Config) {
			c.Telegram.RunMode = RunModeWebhook
			c.Webhook = WebhookConfig{URL: "https://bot.example.com", Listen: "0.0.0.0"}
		}},
		{name: "negative longpoll timeout", mutate: func(c *Config) {
			c.Telegram.LongPollTimeoutSeconds = -1
		}},
		{name: "bad rate limit exclusion", mutate: func(c *Config) {
			c.RateLimit.ExcludeUpdates = []string{"inline_query"}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := Normalize(cfg); err == nil {
				t.Fatal("Normalize accepted invalid config")
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
telegram:
  token: "123:abc"
  run_mode: longpoll
database:
  host: localhost
  port: "5432"
  user: bot
  name: fintrack
  sslmode: disable
logging:
  level: debug
rate_limit:
  interval_ms: 500
  exclude_updates: [callback]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.MaxConnections != 5 {
		t.Fatalf("database config: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	if len(cfg.RateLimit.ExcludeUpdates) != 1 || cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclusions: %+v", cfg.RateLimit.ExcludeUpdates)
	}
}
