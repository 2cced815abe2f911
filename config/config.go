// Package config loads taskboard settings from defaults, an optional YAML
// file, a .env file and TASKBOARD_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"taskboard/storage"
)

// Config is the full application configuration
type Config struct {
	Storage     StorageConfig `mapstructure:"storage"`
	Log         LogConfig     `mapstructure:"log"`
	REPL        REPLConfig    `mapstructure:"repl"`
	LLM         LLMConfig     `mapstructure:"llm"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	DataDir     string `mapstructure:"data_dir"`
	Key         string `mapstructure:"key"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// REPLConfig controls the interactive prompt
type REPLConfig struct {
	Prompt      string `mapstructure:"prompt"`
	HistoryFile string `mapstructure:"history_file"`
}

// LLMConfig configures the /chat assistant
type LLMConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
}

// Options converts the storage section for storage.OpenSlot
func (s StorageConfig) Options() storage.Options {
	return storage.Options{
		Backend:     s.Backend,
		DataDir:     s.DataDir,
		RedisAddr:   s.RedisAddr,
		RedisPrefix: s.RedisPrefix,
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
	}
}

// Load builds the configuration. configFile may be empty, in which case
// the default locations are tried. A .env file in the working directory is
// loaded if present.
func Load(configFile string) (*Config, error) {
	return load(configFile, ".env")
}

func load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	cfg.Storage.SQLitePath = expandHome(cfg.Storage.SQLitePath)
	cfg.REPL.HistoryFile = expandHome(cfg.REPL.HistoryFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed up silently
func (c *Config) Validate() error {
	valid := false
	for _, b := range storage.Backends {
		if c.Storage.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid storage backend %q (use %s)", c.Storage.Backend, strings.Join(storage.Backends, ", "))
	}
	if c.Storage.Backend == storage.BackendPostgres && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage backend postgres requires storage.postgres_dsn")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.Storage.Backend == storage.BackendFile && !storage.ValidKey(c.Storage.Key) {
		return fmt.Errorf("invalid storage key %q for file backend (letters, digits, '.', '_' and '-', at most 64)", c.Storage.Key)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q (use text or json)", c.Log.Format)
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("save_timeout must be positive")
	}
	return nil
}

// setDefaults registers every key so Unmarshal sees it even without a file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_prefix", d.Storage.RedisPrefix)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("repl.prompt", d.REPL.Prompt)
	v.SetDefault("repl.history_file", d.REPL.HistoryFile)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("save_timeout", d.SaveTimeout)
}

// envAliases maps config keys to the environment variables that set them.
// The long TASKBOARD_<SECTION>_<KEY> form always works; the short aliases
// come first.
var envAliases = map[string][]string{
	"storage.backend":      {"TASKBOARD_BACKEND"},
	"storage.data_dir":     {"TASKBOARD_DATA_DIR"},
	"storage.key":          {"TASKBOARD_KEY"},
	"storage.redis_addr":   {"TASKBOARD_REDIS_ADDR"},
	"storage.redis_prefix": {"TASKBOARD_REDIS_PREFIX"},
	"storage.sqlite_path":  {"TASKBOARD_SQLITE_PATH"},
	"storage.postgres_dsn": {"TASKBOARD_POSTGRES_DSN"},
	"log.level":            {"TASKBOARD_LOG_LEVEL"},
	"log.format":           {"TASKBOARD_LOG_FORMAT"},
	"repl.prompt":          {"TASKBOARD_PROMPT"},
	"repl.history_file":    {"TASKBOARD_HISTORY_FILE"},
	"llm.model":            {"TASKBOARD_LLM_MODEL"},
	"llm.api_key":          {"TASKBOARD_LLM_API_KEY"},
	"save_timeout":         {"TASKBOARD_SAVE_TIMEOUT"},
}

func bindEnv(v *viper.Viper) error {
	for key, aliases := range envAliases {
		long := "TASKBOARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		names := append([]string{key}, aliases...)
		if long != aliases[0] {
			names = append(names, long)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// findConfigFile returns the first existing default config path.
// Project config (./.taskboard/config.yaml) wins over the global one.
func findConfigFile() string {
	candidates := []string{filepath.Join(".taskboard", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".taskboard", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
