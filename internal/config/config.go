package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 18790
	DefaultBufSize          = 100
	DefaultStoreDriver      = "json"
	DefaultMatchLimit       = 5
	DefaultRematchEvery     = "10m"
	DefaultRematchMinScore  = 3
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	StoreDriverJSON         = "json"
	StoreDriverSQLite       = "sqlite"
	defaultJSONStoreFile    = "reports.json"
	defaultSQLiteStoreFile  = "reports.db"
	defaultCronStoreSubpath = "cron"
)

type Config struct {
	Store    StoreConfig    `json:"store"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
	Matching MatchingConfig `json:"matching"`
	NLP      NLPConfig      `json:"nlp"`
	Rematch  RematchConfig  `json:"rematch"`
	Log      LogConfig      `json:"log"`
}

type StoreConfig struct {
	Driver string `json:"driver"` // "json" (default) or "sqlite"
	Path   string `json:"path,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WebUI    WebUIConfig    `json:"webui"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WebUIConfig struct {
	Enabled   bool     `json:"enabled"`
	AllowFrom []string `json:"allowFrom"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type MatchingConfig struct {
	Limit int `json:"limit"`
}

type NLPConfig struct {
	LexiconPath  string `json:"lexiconPath,omitempty"`
	WatchLexicon bool   `json:"watchLexicon"`
	// StrictYesterday maps "yesterday" to the previous calendar day.
	StrictYesterday bool `json:"strictYesterday"`
}

type RematchConfig struct {
	Enabled  bool   `json:"enabled"`
	Every    string `json:"every"`
	MinScore int    `json:"minScore"`
}

// Interval parses Every, falling back to the default on error.
func (r RematchConfig) Interval() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(r.Every)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultRematchEvery)
	return d
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			Path:   DefaultStorePath(DefaultStoreDriver),
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Matching: MatchingConfig{Limit: DefaultMatchLimit},
		NLP:      NLPConfig{WatchLexicon: true},
		Rematch: RematchConfig{
			Enabled:  true,
			Every:    DefaultRematchEvery,
			MinScore: DefaultRematchMinScore,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".lostfound")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DataDir holds the report store and cron jobs.
func DataDir() string {
	return filepath.Join(ConfigDir(), "data")
}

// DefaultStorePath is the report store location for driver.
func DefaultStorePath(driver string) string {
	if driver == StoreDriverSQLite {
		return filepath.Join(DataDir(), defaultSQLiteStoreFile)
	}
	return filepath.Join(DataDir(), defaultJSONStoreFile)
}

// CronStorePath is where scheduled jobs persist.
func CronStorePath() string {
	return filepath.Join(DataDir(), defaultCronStoreSubpath, "jobs.json")
}

// LoadConfig reads .env from the working directory, the JSON config file and
// then environment overrides.
func LoadConfig() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.Store.Path = ""

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("LOSTFOUND_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
		cfg.Channels.Telegram.Enabled = true
	}
	if token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); token != "" && cfg.Channels.Telegram.Token == "" {
		cfg.Channels.Telegram.Token = token
		cfg.Channels.Telegram.Enabled = true
	}
	if driver := os.Getenv("LOSTFOUND_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = strings.ToLower(driver)
	}
	if path := os.Getenv("LOSTFOUND_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if path := os.Getenv("LOSTFOUND_LEXICON_PATH"); path != "" {
		cfg.NLP.LexiconPath = path
	}
	if limit := os.Getenv("LOSTFOUND_MATCH_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			cfg.Matching.Limit = parsed
		}
	}
	if level := os.Getenv("LOSTFOUND_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("LOSTFOUND_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if enabled := os.Getenv("LOSTFOUND_WEBUI_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Channels.WebUI.Enabled = parsed
		}
	}
	if enabled := os.Getenv("LOSTFOUND_REMATCH_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Rematch.Enabled = parsed
		}
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DefaultStoreDriver
	}
	if cfg.Store.Driver != StoreDriverJSON && cfg.Store.Driver != StoreDriverSQLite {
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Driver)
	}
	if cfg.Matching.Limit <= 0 {
		cfg.Matching.Limit = DefaultMatchLimit
	}
	if cfg.Rematch.Every == "" {
		cfg.Rematch.Every = DefaultRematchEvery
	}
	if cfg.Rematch.MinScore <= 0 {
		cfg.Rematch.MinScore = DefaultRematchMinScore
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
