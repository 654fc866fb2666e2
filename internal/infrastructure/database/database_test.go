package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

// ─── Open ───────────────────────────────────────────────────────────

func TestOpen_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "history.db")

	db, err := Open(Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		t.Errorf("file mode = %o, want %o", perm, fileMode)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(Config{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("Open() error = %v, want ErrNoPath", err)
	}
}

func TestOpen_JournalMode(t *testing.T) {
	ctx := context.Background()

	wal := openTestDB(t)
	if mode, err := wal.JournalMode(ctx); err != nil || mode != "wal" {
		t.Errorf("JournalMode() = %q, %v; want wal", mode, err)
	}

	plain, err := Open(Config{Path: filepath.Join(t.TempDir(), "plain.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer plain.Close() //nolint:errcheck // test cleanup
	if mode, err := plain.JournalMode(ctx); err != nil || mode != "delete" {
		t.Errorf("JournalMode() = %q, %v; want delete", mode, err)
	}
}

func TestOpen_SingleConnection(t *testing.T) {
	db := openTestDB(t)
	if n := db.Stats().MaxOpenConnections; n != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", n)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)
	var on int
	if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&on); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestDataSourceName(t *testing.T) {
	dsn := dataSourceName(Config{Path: "/var/lib/rfpanel/history.db", WALMode: true, BusyTimeout: 3})

	if !strings.HasPrefix(dsn, "file:/var/lib/rfpanel/history.db?") {
		t.Errorf("dsn = %q", dsn)
	}
	for _, want := range []string{"_busy_timeout=3000", "_foreign_keys=on", "_journal_mode=WAL", "_synchronous=NORMAL"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %s", dsn, want)
		}
	}

	if strings.Contains(dataSourceName(Config{Path: "x.db"}), "_journal_mode") {
		t.Error("journal mode should only be set with WALMode")
	}
}

// ─── Lifecycle ──────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_AfterClose(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() on a closed database should fail")
	}
}

func TestClose_Zero(t *testing.T) {
	var nilDB *DB
	if err := nilDB.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
	if err := (&DB{}).Close(); err != nil {
		t.Errorf("zero Close() error = %v", err)
	}
}
