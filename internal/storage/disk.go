package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// SizeOnDisk returns the total size in bytes of the given files or directories.
// Empty and missing paths count as zero.
func SizeOnDisk(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}

// DatabaseFiles returns the SQLite database path with its WAL and shared-memory companions.
func DatabaseFiles(dbPath string) []string {
	if dbPath == "" {
		return nil
	}
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

// DatabaseSize reports the bytes used by the database at dbPath.
func DatabaseSize(dbPath string) int64 {
	n, err := SizeOnDisk(DatabaseFiles(dbPath)...)
	if err != nil {
		return 0
	}
	return n
}
