package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskboard/commands"
	"taskboard/config"
	"taskboard/llm"
	"taskboard/storage"
	"taskboard/taskstore"
)

// openTimeout bounds connecting to the storage backend and the first load
const openTimeout = 15 * time.Second

// app is everything one taskboard run needs
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter *storage.Adapter
	store   *taskstore.Store
	client  llm.Client
}

// newApp loads configuration, opens storage and the task store, and wires
// them into the command registry
func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	slot, err := storage.OpenSlot(ctx, cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Info("storage opened", "backend", cfg.Storage.Backend, "key", cfg.Storage.Key)

	adapter := storage.NewAdapter(slot, storage.WithKey(cfg.Storage.Key))
	store := taskstore.Open(ctx, adapter,
		taskstore.WithLogger(logger),
		taskstore.WithSaveTimeout(cfg.SaveTimeout),
	)
	if err := store.LoadError(); err != nil {
		if errors.Is(err, storage.ErrCorruptState) {
			fmt.Fprintln(os.Stderr, "Warning: saved tasks could not be read and were ignored. They will be overwritten on the next change.")
		} else {
			fmt.Fprintf(os.Stderr, "Warning: storage unavailable, starting with no tasks: %v\n", err)
		}
	}

	commands.SetStore(store, adapter)

	a := &app{cfg: cfg, logger: logger, adapter: adapter, store: store}

	if cfg.LLM.APIKey != "" {
		client, err := llm.NewGeminiClient(context.Background(), cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Warn("assistant unavailable", "error", err)
		} else {
			a.client = client
			commands.SetLLMClient(client)
		}
	}

	return a, nil
}

func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("backend") {
		cfg.Storage.Backend = flags.backend
	}
	if pf.Changed("data-dir") {
		cfg.Storage.DataDir = flags.dataDir
	}
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) Close() {
	if a.client != nil {
		a.client.Close()
	}
	if err := a.store.LastPersistError(); err != nil {
		a.logger.Error("last save failed, recent changes may be lost", "error", err)
	}
	if err := a.adapter.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
	commands.SetStore(nil, nil)
	commands.SetLLMClient(nil)
}
