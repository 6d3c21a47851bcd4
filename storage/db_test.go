package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func exerciseDatabase(t *testing.T, db Database) {
	t.Helper()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("a"))
	if err != nil || string(got) != "1" {
		t.Fatalf("expected 1, got %q (%v)", got, err)
	}

	batch := db.NewBatch()
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("a"))
	if batch.Len() != 2 {
		t.Fatalf("expected 2 pending writes, got %d", batch.Len())
	}
	if _, err := db.Get([]byte("b")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("batch must not apply before Write, got %v", err)
	}
	if err := batch.Write(); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := db.Get([]byte("a")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a deleted, got %v", err)
	}
	got, err = db.Get([]byte("b"))
	if err != nil || string(got) != "2" {
		t.Fatalf("expected 2, got %q (%v)", got, err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestBoltDB(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("rocks", t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	db, err := Open(BackendMemory, "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := db.(*MemDB); !ok {
		t.Fatalf("expected *MemDB, got %T", db)
	}
}
