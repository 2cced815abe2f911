package config

import (
	"time"

	"taskboard/storage"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:     storage.BackendFile,
			DataDir:     "~/.taskboard",
			Key:         storage.DefaultKey,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "taskboard:",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		REPL: REPLConfig{
			Prompt:      "> ",
			HistoryFile: "~/.taskboard/history",
		},
		LLM: LLMConfig{
			Model: "gemini-2.5-flash",
		},
		SaveTimeout: 5 * time.Second,
	}
}
