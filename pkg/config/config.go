// Package config loads the application configuration from a YAML file
// overlaid with environment variables.
//
// Precedence, lowest to highest: built-in defaults, the YAML file,
// THREADFLOW_* environment variables. A .env file can seed the
// environment via LoadEnv before Load runs.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Checkpoint backends accepted by Config.Checkpoint.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Board      BoardConfig      `mapstructure:"board"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// BoardConfig points at the upstream task board.
type BoardConfig struct {
	Token    string `mapstructure:"token"`
	Endpoint string `mapstructure:"endpoint"`
	BoardID  string `mapstructure:"board_id"`
}

// LLMConfig configures the chat-completions provider.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// NotifyConfig configures the outbound webhook notifier.
type NotifyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	BotUserID  string `mapstructure:"bot_user_id"`
	Channel    string `mapstructure:"channel"`
}

// CheckpointConfig selects and configures the checkpoint store.
type CheckpointConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// CacheConfig configures the board snapshot cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SheetsConfig configures the data-file source for the sheets agent.
type SheetsConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultFile string `mapstructure:"default_file"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel maps the configured level name to slog. Unknown names
// fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used before any file or
// environment values apply.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			MaxTokens:   400,
			Temperature: 0.7,
		},
		Checkpoint: CheckpointConfig{
			Backend: BackendMemory,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Sheets: SheetsConfig{
			Dir: "data",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every missing or inconsistent field at once.
func (c Config) Validate() error {
	var errs []error

	if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key is required"))
	}
	if c.Board.Token == "" {
		errs = append(errs, fmt.Errorf("board.token is required"))
	}
	if c.Board.BoardID == "" {
		errs = append(errs, fmt.Errorf("board.board_id is required"))
	}
	if c.Notify.Enabled && c.Notify.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notify.webhook_url is required when notifications are enabled"))
	}

	switch c.Checkpoint.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Checkpoint.Path == "" {
			errs = append(errs, fmt.Errorf("checkpoint.path is required for the sqlite backend"))
		}
	case BackendRedis:
		if c.Checkpoint.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("checkpoint.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("checkpoint.backend must be one of %s, %s, %s", BackendMemory, BackendSQLite, BackendRedis))
	}

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}

	return errors.Join(errs...)
}
