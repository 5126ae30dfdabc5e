package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func openSQLite(t *testing.T) storage.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fintrack.db")
	s, err := storage.Open(context.Background(), storage.SQLite, path, applog.Discard())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, openSQLite)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	for i := 0; i < 2; i++ {
		s, err := storage.Open(context.Background(), storage.SQLite, path, applog.Discard())
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := s.Ping(context.Background()); err != nil {
			t.Fatalf("ping #%d: %v", i+1, err)
		}
		s.Close()
	}
}
