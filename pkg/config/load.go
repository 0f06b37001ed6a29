package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when Load is called with an empty path.
const DefaultPath = "threadflow.yaml"

// envOverrides maps environment variables to the config paths they
// set. Values are strings; the weakly typed decode coerces them.
var envOverrides = map[string]string{
	"THREADFLOW_BOARD_TOKEN":         "board.token",
	"THREADFLOW_BOARD_ENDPOINT":      "board.endpoint",
	"THREADFLOW_BOARD_ID":            "board.board_id",
	"THREADFLOW_LLM_API_KEY":         "llm.api_key",
	"THREADFLOW_LLM_BASE_URL":        "llm.base_url",
	"THREADFLOW_LLM_MODEL":           "llm.model",
	"THREADFLOW_LLM_MAX_TOKENS":      "llm.max_tokens",
	"THREADFLOW_LLM_TEMPERATURE":     "llm.temperature",
	"THREADFLOW_NOTIFY_ENABLED":      "notify.enabled",
	"THREADFLOW_NOTIFY_WEBHOOK_URL":  "notify.webhook_url",
	"THREADFLOW_NOTIFY_BOT_USER_ID":  "notify.bot_user_id",
	"THREADFLOW_NOTIFY_CHANNEL":      "notify.channel",
	"THREADFLOW_CHECKPOINT_BACKEND":  "checkpoint.backend",
	"THREADFLOW_CHECKPOINT_PATH":     "checkpoint.path",
	"THREADFLOW_REDIS_ADDR":          "checkpoint.redis_addr",
	"THREADFLOW_REDIS_PASSWORD":      "checkpoint.redis_password",
	"THREADFLOW_REDIS_DB":            "checkpoint.redis_db",
	"THREADFLOW_REDIS_PREFIX":        "checkpoint.redis_prefix",
	"THREADFLOW_CACHE_TTL":           "cache.ttl",
	"THREADFLOW_SHEETS_DIR":          "sheets.dir",
	"THREADFLOW_SHEETS_DEFAULT_FILE": "sheets.default_file",
	"THREADFLOW_SERVER_ADDR":         "server.addr",
	"THREADFLOW_LOG_LEVEL":           "log.level",
	"THREADFLOW_LOG_FORMAT":          "log.format",
}

// LoadEnv seeds the process environment from a .env file in the
// working directory. A missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads the configuration file at path and overlays THREADFLOW_*
// environment variables on top. An empty path falls back to
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults plus environment alone are a valid configuration.
	default:
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	for name, target := range envOverrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			setPath(raw, target, v)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// setPath writes value at a dotted path, creating intermediate maps
// as needed.
func setPath(m map[string]any, path, value string) {
	keys := strings.Split(path, ".")
	for _, key := range keys[:len(keys)-1] {
		child, ok := m[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[key] = child
		}
		m = child
	}
	m[keys[len(keys)-1]] = value
}
