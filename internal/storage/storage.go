package storage

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Store is the filename-keyed blob interface the services depend on. Keys
// are bare filenames inside a single flat root; there is no directory
// hierarchy. Backing files, backups, and the audit log all live side by
// side under the root.
type Store interface {
	RootAbs() string
	Resolve(name string) (string, error)
	Exists(name string) (bool, error)
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFileAtomic(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	List(prefix string) ([]string, error)
	OpenForRead(name string) (*os.File, error)
}

// DiskStore implements Store over one directory on the local filesystem.
type DiskStore struct {
	validator *NameValidator
}

var _ Store = (*DiskStore)(nil)

// New creates the root directory if needed and returns a DiskStore rooted
// there.
func New(root string) (*DiskStore, error) {
	validator, err := NewNameValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &DiskStore{validator: validator}, nil
}

func (s *DiskStore) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *DiskStore) Resolve(name string) (string, error) {
	return s.validator.ResolveName(name)
}

func (s *DiskStore) Exists(name string) (bool, error) {
	resolved, err := s.Resolve(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(resolved)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *DiskStore) Stat(name string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

func (s *DiskStore) ReadFile(name string) ([]byte, error) {
	resolved, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(resolved)
}

// WriteFileAtomic replaces name's contents in one step: the data is written
// to a temporary file in the same directory, fsynced, then renamed over the
// destination. Readers observe either the old or the new contents, never a
// partial write.
func (s *DiskStore) WriteFileAtomic(name string, data []byte, perm fs.FileMode) error {
	resolved, err := s.Resolve(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.RootAbs(), "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best effort; gone already after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file for %q: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file for %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %q: %w", name, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file for %q: %w", name, err)
	}

	if err := os.Rename(tmpName, resolved); err != nil {
		return fmt.Errorf("replace %q: %w", name, err)
	}
	return nil
}

func (s *DiskStore) Remove(name string) error {
	resolved, err := s.Resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil {
		return fmt.Errorf("remove %q: %w", name, err)
	}
	return nil
}

// List returns the names of regular files under the root that begin with
// prefix, sorted ascending. Hidden temp files are excluded.
func (s *DiskStore) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.RootAbs())
	if err != nil {
		return nil, fmt.Errorf("list storage root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

func (s *DiskStore) OpenForRead(name string) (*os.File, error) {
	resolved, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	return os.Open(resolved)
}
