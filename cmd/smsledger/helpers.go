package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/pattern"
	"github.com/Veraticus/smsledger/internal/platform"
	"github.com/Veraticus/smsledger/internal/settings"
	"github.com/Veraticus/smsledger/internal/storage"
)

// app bundles the components every command needs.
type app struct {
	cfg      *config.Config
	store    *storage.SQLiteStorage
	terminal *platform.Terminal
	settings *settings.Manager
	pipeline *engine.Pipeline
}

// openApp loads configuration, opens and migrates the database and builds
// the parsing pipeline.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	terminal := platform.NewTerminal(platform.TerminalConfig{
		SMSPermission: cfg.Platform.SMSPermission,
		LockFile:      cfg.Platform.LockFile,
	})

	manager, err := settings.New(settings.Config{
		Store:    store,
		Prober:   terminal,
		Cooldown: cfg.Permissions.Cooldown,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry, err := pattern.NewRegistryFromConfig(viper.GetViper())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load institution patterns: %w", err)
	}

	return &app{
		cfg:      cfg,
		store:    store,
		terminal: terminal,
		settings: manager,
		pipeline: engine.New(engine.Config{Registry: registry, Location: cfg.Location}),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to run migrations: %w", err), store.Close())
	}

	return store, nil
}
