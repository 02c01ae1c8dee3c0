package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"notice_bot/internal/models"

	"gopkg.in/yaml.v3"
)

// Config хранит настройки бота, обхода, хранилища и список источников.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Database DatabaseConfig `yaml:"database"`
	Notifier NotifierConfig `yaml:"notifier"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sources  []SourceConfig `yaml:"sources"`
}

// BotConfig - куда и с какой скоростью отправлять сообщения.
type BotConfig struct {
	Token            string `yaml:"token"`
	Channel          string `yaml:"telegram_channel"`
	LogChannel       string `yaml:"log_channel"`
	MaxNoticesPerRun int    `yaml:"max_notices_per_run"`
	MessageDelayMs   int    `yaml:"message_delay_ms"`
}

// CrawlConfig - расписание, параллелизм и границы повторов.
type CrawlConfig struct {
	Interval              time.Duration `yaml:"interval"`
	Concurrency           int           `yaml:"concurrency"`
	FetchAttempts         int           `yaml:"fetch_attempts"`
	FetchBackoff          time.Duration `yaml:"fetch_backoff"`
	NotifyAttempts        int           `yaml:"notify_attempts"`
	NotifyBackoff         time.Duration `yaml:"notify_backoff"`
	RequestTimeout        time.Duration `yaml:"request_timeout"`
	UserAgent             string        `yaml:"user_agent"`
	InsecureSkipVerify    bool          `yaml:"insecure_skip_verify"`
	FailureAlertThreshold int           `yaml:"failure_alert_threshold"`
}

// DatabaseConfig выбирает бэкенд хранилища дедупликации.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// NotifierConfig выбирает канал доставки.
type NotifierConfig struct {
	Driver  string `yaml:"driver"`
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`

	// RelayWorkers - число обработчиков очереди в режиме relay.
	RelayWorkers int `yaml:"relay_workers"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig - запись об источнике в том виде, как она лежит в файле.
type SourceConfig struct {
	Key         string            `yaml:"key"`
	DisplayName string            `yaml:"display_name"`
	Parser      string            `yaml:"parser"`
	URL         string            `yaml:"url"`
	Enabled     *bool             `yaml:"enabled"`
	Channel     string            `yaml:"channel"`
	Params      map[string]string `yaml:"params"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	NotifierTelegram = "telegram"
	NotifierAMQP     = "amqp"
)

// requiredParams - параметры, без которых вариант парсера не может построить адрес списка.
var requiredParams = map[models.Kind][]string{
	models.KindPhpMaster: {"pg_idx"},
	models.KindXEBoard:   {"mid"},
}

// LoadConfig читает YAML-файл по пути path, подставляет значения по умолчанию
// и переопределения из окружения. Валидация - отдельным вызовом Validate.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.MaxNoticesPerRun == 0 {
		cfg.Bot.MaxNoticesPerRun = 20
	}
	if cfg.Bot.MessageDelayMs == 0 {
		cfg.Bot.MessageDelayMs = 150
	}
	if cfg.Crawl.Interval == 0 {
		cfg.Crawl.Interval = 10 * time.Minute
	}
	if cfg.Crawl.Concurrency == 0 {
		cfg.Crawl.Concurrency = 1
	}
	if cfg.Crawl.FetchAttempts == 0 {
		cfg.Crawl.FetchAttempts = 4
	}
	if cfg.Crawl.FetchBackoff == 0 {
		cfg.Crawl.FetchBackoff = 2 * time.Second
	}
	if cfg.Crawl.NotifyAttempts == 0 {
		cfg.Crawl.NotifyAttempts = 3
	}
	if cfg.Crawl.NotifyBackoff == 0 {
		cfg.Crawl.NotifyBackoff = time.Second
	}
	if cfg.Crawl.RequestTimeout == 0 {
		cfg.Crawl.RequestTimeout = 15 * time.Second
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = "CBNU-Notice-Bot/1.0 (student project)"
	}
	if cfg.Crawl.FailureAlertThreshold == 0 {
		cfg.Crawl.FailureAlertThreshold = 5
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "notices.db"
	}
	if cfg.Notifier.Driver == "" {
		cfg.Notifier.Driver = NotifierTelegram
	}
	if cfg.Notifier.Queue == "" {
		cfg.Notifier.Queue = "notices"
	}
	if cfg.Notifier.RelayWorkers == 0 {
		cfg.Notifier.RelayWorkers = 1
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
}

// applyEnv даёт окружению приоритет над файлом: секреты и пути не хранятся в репозитории.
func (cfg *Config) applyEnv() {
	override := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	override(&cfg.Bot.Token, "TELEGRAM_TOKEN", "TELOXIDE_TOKEN")
	override(&cfg.Bot.Channel, "CHANNEL_ID", "TELEGRAM_CHANNEL_ID")
	override(&cfg.Bot.LogChannel, "LOG_CHANNEL_ID", "TELEGRAM_LOG_CHANNEL")
	override(&cfg.Database.Path, "DATABASE_PATH")
	override(&cfg.Database.DSN, "DATABASE_URL")
	override(&cfg.Notifier.AMQPURL, "AMQP_URL")
}

// Validate проверяет источники (уникальные ключи, известный парсер, корректный URL,
// обязательные параметры) и общие настройки.
func (cfg *Config) Validate() error {
	if cfg.Crawl.Interval <= 0 {
		return errors.New("crawl interval must be positive")
	}
	if cfg.Crawl.Concurrency < 1 {
		return errors.New("crawl concurrency must be ≥ 1")
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			return errors.New("postgres driver requires database.dsn")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	switch cfg.Notifier.Driver {
	case NotifierTelegram:
	case NotifierAMQP:
		if cfg.Notifier.AMQPURL == "" {
			return errors.New("amqp notifier requires notifier.amqp_url")
		}
	default:
		return fmt.Errorf("unknown notifier driver: %s", cfg.Notifier.Driver)
	}

	if len(cfg.Sources) == 0 {
		return errors.New("no sources configured")
	}

	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Key == "" {
			return fmt.Errorf("source #%d: empty key", i+1)
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("source %s: duplicate key", s.Key)
		}
		seen[s.Key] = struct{}{}

		kind, err := models.ParseKind(s.Parser)
		if err != nil {
			return fmt.Errorf("source %s: %w", s.Key, err)
		}
		u, err := url.ParseRequestURI(s.URL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("source %s: invalid URL: %s", s.Key, s.URL)
		}
		for _, p := range requiredParams[kind] {
			if s.Params[p] == "" {
				return fmt.Errorf("source %s: parser %s requires param %q", s.Key, kind, p)
			}
		}
	}
	return nil
}

// SourceList превращает проверенные записи в неизменяемый список для оркестратора.
// Вызывать после Validate.
func (cfg *Config) SourceList() []models.Source {
	out := make([]models.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		kind, _ := models.ParseKind(s.Parser)
		enabled := true
		if s.Enabled != nil {
			enabled = *s.Enabled
		}
		params := make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			params[k] = v
		}
		name := s.DisplayName
		if name == "" {
			name = s.Key
		}
		out = append(out, models.Source{
			Key:         s.Key,
			DisplayName: name,
			Kind:        kind,
			BaseURL:     s.URL,
			Enabled:     enabled,
			Params:      params,
			Channel:     s.Channel,
		})
	}
	return out
}

// MessageDelay - пауза между сообщениями в канал.
func (cfg *Config) MessageDelay() time.Duration {
	return time.Duration(cfg.Bot.MessageDelayMs) * time.Millisecond
}
