package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"notice_bot/internal/config"
	"notice_bot/internal/models"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

const sampleYAML = `
bot:
  telegram_channel: "@cbnu_notice"
  max_notices_per_run: 10
  message_delay_ms: 200
crawl:
  interval: 5m
  fetch_attempts: 2
database:
  path: test.db
sources:
  - key: cbnu_main
    display_name: CBNU notices
    parser: egov
    url: https://www.chungbuk.ac.kr/www/selectBbsNttList.do
    params:
      bbsNo: "8"
      key: "813"
  - key: biz
    display_name: Business
    parser: php_master
    url: https://biz.chungbuk.ac.kr
    enabled: false
    channel: "@cbnu_dept"
    params:
      pg_idx: "7"
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_TOKEN", "TELOXIDE_TOKEN", "CHANNEL_ID", "TELEGRAM_CHANNEL_ID",
		"LOG_CHANNEL_ID", "TELEGRAM_LOG_CHANNEL", "DATABASE_PATH", "DATABASE_URL", "AMQP_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Success(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, sampleYAML)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "@cbnu_notice", cfg.Bot.Channel)
	require.Equal(t, 10, cfg.Bot.MaxNoticesPerRun)
	require.Equal(t, 200*time.Millisecond, cfg.MessageDelay())
	require.Equal(t, 5*time.Minute, cfg.Crawl.Interval)
	require.Equal(t, 2, cfg.Crawl.FetchAttempts)
	require.Equal(t, "test.db", cfg.Database.Path)

	// defaults
	require.Equal(t, 1, cfg.Crawl.Concurrency)
	require.Equal(t, 3, cfg.Crawl.NotifyAttempts)
	require.Equal(t, 5, cfg.Crawl.FailureAlertThreshold)
	require.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	require.Equal(t, config.NotifierTelegram, cfg.Notifier.Driver)

	sources := cfg.SourceList()
	require.Len(t, sources, 2)
	require.Equal(t, models.KindEgov, sources[0].Kind)
	require.True(t, sources[0].Enabled, "enabled defaults to true")
	require.Equal(t, "8", sources[0].Params["bbsNo"])
	require.Equal(t, models.KindPhpMaster, sources[1].Kind)
	require.False(t, sources[1].Enabled)
	require.Equal(t, "@cbnu_dept", sources[1].Channel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "-100200")
	t.Setenv("DATABASE_PATH", "/data/notices.db")

	cfg, err := config.LoadConfig(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Bot.Token)
	require.Equal(t, "-100200", cfg.Bot.Channel)
	require.Equal(t, "/data/notices.db", cfg.Database.Path)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := config.LoadConfig("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := config.LoadConfig(writeTempConfig(t, "sources: [ : invalid"))
	require.Error(t, err)
}

func validConfig() *config.Config {
	return &config.Config{
		Crawl:    config.CrawlConfig{Interval: time.Minute, Concurrency: 1},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: "x.db"},
		Notifier: config.NotifierConfig{Driver: config.NotifierTelegram},
		Sources: []config.SourceConfig{
			{Key: "phys", Parser: "php_master", URL: "https://phys.chungbuk.ac.kr", Params: map[string]string{"pg_idx": "123"}},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"duplicate key", func(c *config.Config) {
			c.Sources = append(c.Sources, c.Sources[0])
		}, "duplicate key"},
		{"empty key", func(c *config.Config) { c.Sources[0].Key = "" }, "empty key"},
		{"unknown parser", func(c *config.Config) { c.Sources[0].Parser = "wordpress" }, "unknown parser kind"},
		{"invalid url", func(c *config.Config) { c.Sources[0].URL = "not-a-url" }, "invalid URL"},
		{"missing pg_idx", func(c *config.Config) { c.Sources[0].Params = nil }, `requires param "pg_idx"`},
		{"no sources", func(c *config.Config) { c.Sources = nil }, "no sources"},
		{"bad interval", func(c *config.Config) { c.Crawl.Interval = 0 }, "interval"},
		{"postgres without dsn", func(c *config.Config) { c.Database.Driver = config.DriverPostgres }, "database.dsn"},
		{"unknown db driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "unknown database driver"},
		{"amqp without url", func(c *config.Config) { c.Notifier.Driver = config.NotifierAMQP }, "amqp_url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
