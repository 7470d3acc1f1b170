// Package cache persists fetched record sets on disk so repeated runs do not
// burn through the API request quota.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/porsk/github-stats/internal/domain"
)

// Store is the capability the downloader uses to read and replace cached
// record sets. Entries are keyed by repository and dataset name and have no
// expiry: a cached entry is served until it is explicitly overwritten or
// cleared.
type Store interface {
	// Get decodes the entry for (repo, dataset) into the value pointed to by
	// into. It returns false with a nil error when no entry exists.
	Get(repo domain.RepositoryRef, dataset string, into any) (bool, error)
	// Put replaces the entry for (repo, dataset) with value.
	Put(repo domain.RepositoryRef, dataset string, value any) error
	// Clear removes every entry belonging to the repository.
	Clear(repo domain.RepositoryRef) error
}

// DiskStore keeps one GOB file per (repository, dataset) under
// <root>/<owner>/<name>/<dataset>.gob.
type DiskStore struct {
	root string
}

// NewDiskStore creates a store rooted at dir. The directory is created lazily
// on the first Put.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

func (s *DiskStore) entryPath(repo domain.RepositoryRef, dataset string) string {
	return filepath.Join(s.root, repo.Owner, repo.Name, dataset+".gob")
}

// Get implements Store.
func (s *DiskStore) Get(repo domain.RepositoryRef, dataset string, into any) (bool, error) {
	path := s.entryPath(repo, dataset)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading cache entry %s: %w", path, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(into); err != nil {
		return false, fmt.Errorf("decoding cache entry %s: %w", path, err)
	}
	return true, nil
}

// Put implements Store. The entry is written to a temporary file first so a
// failed write never leaves a truncated entry behind.
func (s *DiskStore) Put(repo domain.RepositoryRef, dataset string, value any) error {
	path := s.entryPath(repo, dataset)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory for %s: %w", repo, err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", path, err)
	}
	return nil
}

// Clear implements Store.
func (s *DiskStore) Clear(repo domain.RepositoryRef) error {
	dir := filepath.Join(s.root, repo.Owner, repo.Name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing cache for %s: %w", repo, err)
	}
	return nil
}
