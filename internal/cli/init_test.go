package cli

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "memory", cfg: config.Config{DataBackend: "memory"}},
		{name: "sqlite", cfg: config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db")}},
		{name: "unknown", cfg: config.Config{DataBackend: "sheets"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStore(ctx, &tt.cfg, applog.Discard())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer store.Close()

			if err := store.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}
			cats, err := store.ListVisibleCategories(ctx, "11111111-1111-4111-8111-111111111111")
			if err != nil || len(cats) != len(storage.DefaultCategories()) {
				t.Errorf("seeded categories = %d, %v", len(cats), err)
			}
		})
	}
}

func TestSetupLoggerComponent(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := SetupLogger("relay")
	if logger.Component() != "relay" {
		t.Errorf("component = %q", logger.Component())
	}
}
