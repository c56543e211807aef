package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrInvalidUserId is returned for user ids that cannot be embedded in
// storage paths.
var ErrInvalidUserId = errors.New("invalid user id")

// ValidUserId reports whether id is safe to use as a path component. Ids
// arrive from the outside (request headers), so anything that could traverse
// out of the storage directory is rejected.
func ValidUserId(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// Store is the persistence substrate for per-user JSON blobs (sync caches,
// profiles, tokens). Implementations must make Put atomic: a reader never
// observes a partially written value.
type Store interface {
	// Get unmarshals the blob for (userId, kind) into v. Returns false when
	// no blob exists.
	Get(userId string, kind string, v any) (bool, error)
	Put(userId string, kind string, v any) error
	Delete(userId string, kind string) error
	// ListUsers returns the ids of all users that have at least one blob.
	ListUsers() ([]string, error)
}

// FileStore keeps one JSON file per (user, kind) pair under a base directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userId, kind string) string {
	return filepath.Join(s.dir, userId+"_"+kind+".json")
}

func (s *FileStore) Get(userId string, kind string, v any) (bool, error) {
	if !ValidUserId(userId) {
		return false, ErrInvalidUserId
	}
	data, err := os.ReadFile(s.path(userId, kind))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", userId, kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", userId, kind, err)
	}
	return true, nil
}

// Put writes to a temp file in the same directory and renames it over the
// target, so the stored blob is replaced as one unit.
func (s *FileStore) Put(userId string, kind string, v any) error {
	if !ValidUserId(userId) {
		return ErrInvalidUserId
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", userId, kind, err)
	}

	target := s.path(userId, kind)
	tmp, err := os.CreateTemp(s.dir, userId+"_"+kind+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s/%s: %w", userId, kind, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s/%s: %w", userId, kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s/%s: %w", userId, kind, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s/%s: %w", userId, kind, err)
	}
	return nil
}

func (s *FileStore) Delete(userId string, kind string) error {
	if !ValidUserId(userId) {
		return ErrInvalidUserId
	}
	err := os.Remove(s.path(userId, kind))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) ListUsers() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}
	seen := map[string]bool{}
	var users []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		idx := strings.LastIndex(strings.TrimSuffix(name, ".json"), "_")
		if idx <= 0 {
			log.Debugf("ignoring unrecognized storage file: %s", name)
			continue
		}
		userId := name[:idx]
		if !seen[userId] {
			seen[userId] = true
			users = append(users, userId)
		}
	}
	return users, nil
}
