package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSizeOnDisk(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "f1.txt")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{f1}, 5},
		{"directory", []string{sub}, 3},
		{"file and directory", []string{f1, sub}, 8},
		{"missing path skipped", []string{f1, filepath.Join(dir, "nonexistent"), sub}, 8},
		{"empty path skipped", []string{"", f1}, 5},
	}
	for _, tc := range cases {
		got, err := SizeOnDisk(tc.paths...)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %d bytes, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDatabaseSize(t *testing.T) {
	if DatabaseSize("") != 0 {
		t.Error("empty path should be 0")
	}
	path := filepath.Join(t.TempDir(), "conv.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if DatabaseSize(path) <= 0 {
		t.Error("expected a non-zero database size")
	}
	if len(DatabaseFiles(path)) != 3 {
		t.Error("expected database, wal and shm paths")
	}
}
