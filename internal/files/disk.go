package files

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore writes uploads under a single directory with generated names so
// user-supplied filenames never touch the filesystem.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	err := os.MkdirAll(dir, 0o755)

	if err != nil {
		return nil, err
	}

	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	stored := uuid.NewString() + ext

	err := os.WriteFile(filepath.Join(s.dir, stored), data, 0o644)

	if err != nil {
		return "", err
	}

	return stored, nil
}

func (s *DiskStore) Remove(storedName string) error {
	// stored names are uuid-generated, never joined from user input
	return os.Remove(filepath.Join(s.dir, filepath.Base(storedName)))
}
