package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDatabaseURL = "taskit.db"
	defaultHTTPAddr    = ":8080"
	defaultTimeZone    = "Asia/Jerusalem"
	defaultReportTime  = "08:00"
)

// Config keeps runtime settings for the API server and the bot.
type Config struct {
	DatabaseURL   string `yaml:"database_url"`
	HTTPAddr      string `yaml:"http_addr"`
	TimeZone      string `yaml:"time_zone"`
	TelegramToken string `yaml:"telegram_token"`
	ReportTime    string `yaml:"report_time"`
	// ReportInterval, when set, replaces the daily report at ReportTime.
	ReportInterval time.Duration `yaml:"-"`
	ReportHours    string        `yaml:"report_interval_hours"`
}

// Load reads an optional YAML file and then applies environment overrides.
// The file is taken from CONFIG_FILE, falling back to ./config.yaml when present.
func Load() (Config, error) {
	var cfg Config

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	if err := loadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	override(&cfg.DatabaseURL, "DATABASE_URL")
	override(&cfg.HTTPAddr, "HTTP_ADDR")
	override(&cfg.TimeZone, "TIME_ZONE")
	override(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	override(&cfg.ReportTime, "REPORT_TIME")
	override(&cfg.ReportHours, "REPORT_INTERVAL_HOURS")

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = defaultTimeZone
	}
	if cfg.ReportTime == "" {
		cfg.ReportTime = defaultReportTime
	}
	cfg.ReportInterval = parseInterval(cfg.ReportHours)

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return cfg, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// ${VAR} placeholders are replaced with environment values.
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func parseInterval(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
