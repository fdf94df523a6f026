package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a new Store backed by a database in a temp dir.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Verify the database file doesn't exist yet
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"settings", "images"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := range 2 {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	// After closing, DB operations should fail
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestStore_IndexesCreated(t *testing.T) {
	s := newTestStore(t)

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_images_name",
	).Scan(&name)
	if err != nil {
		t.Errorf("index should exist after migrations: %v", err)
	}
}

func TestImageRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Images()

	img := &Image{ID: "img-1", Name: "sample", Path: "/tmp/sample.jpg"}
	if err := repo.Create(img); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if img.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := repo.GetByName("sample")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != "img-1" || got.Path != "/tmp/sample.jpg" {
		t.Errorf("unexpected image %+v", got)
	}

	// Names are unique
	if err := repo.Create(&Image{ID: "img-2", Name: "sample", Path: "/other.jpg"}); err == nil {
		t.Error("expected duplicate name to fail")
	}

	upsert := &Image{ID: "ignored", Name: "sample", Path: "/tmp/moved.jpg"}
	if err := repo.Upsert(upsert); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if upsert.ID != "img-1" {
		t.Errorf("upsert ID = %q, want img-1", upsert.ID)
	}

	if err := repo.Upsert(&Image{ID: "img-3", Name: "another", Path: "/tmp/a.png"}); err != nil {
		t.Fatalf("Upsert new: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "another" || list[1].Name != "sample" {
		t.Fatalf("unexpected list %+v", list)
	}

	paths, err := repo.Paths()
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if paths["sample"] != "/tmp/moved.jpg" || paths["another"] != "/tmp/a.png" {
		t.Errorf("unexpected paths %v", paths)
	}

	if err := repo.Delete("img-3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete("img-3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByName("another"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName after delete err = %v, want ErrNotFound", err)
	}
}
