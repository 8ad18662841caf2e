// Package testutil provides shared fixtures for tests: an in-memory
// database, a recording presenter and static collaborators.
package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
)

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	// Settings, when set, is stored under the settings key.
	Settings *model.MonitorSettings
	// Pending messages are parked before the test starts.
	Pending        []model.IncomingMessage
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database that is closed when
// the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Settings != nil {
		data, err := json.Marshal(opts.Settings)
		if err != nil {
			t.Fatalf("failed to encode settings: %v", err)
		}
		if err := store.Set(ctx, SettingsKey, data); err != nil {
			t.Fatalf("failed to seed settings: %v", err)
		}
	}

	for _, msg := range opts.Pending {
		if err := store.PushPending(ctx, msg); err != nil {
			t.Fatalf("failed to seed pending message %s: %v", msg.ID, err)
		}
	}

	return store
}

// SettingsKey mirrors the key the settings manager stores under.
const SettingsKey = "sms_monitor_settings"
