package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// documentStore keeps one JSON file per entity under root/kind.
type documentStore[T any] struct {
	mu       sync.RWMutex
	dir      string
	entity   string
	notFound error
	idOf     func(*T) string
}

func newDocumentStore[T any](root, kind, entity string, notFound error, idOf func(*T) string) *documentStore[T] {
	return &documentStore[T]{
		dir:      path.Join(root, kind),
		entity:   entity,
		notFound: notFound,
		idOf:     idOf,
	}
}

func (s *documentStore[T]) filePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid %s id %q", s.entity, id)
	}

	return filepath.Clean(path.Join(s.dir, id+".json")), nil
}

func (s *documentStore[T]) all(ctx context.Context) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*T, 0)

	jsonFiles, err := fs.Glob(os.DirFS(s.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", s.entity, err)
	}

	sort.Strings(jsonFiles)

	for _, name := range jsonFiles {
		item, err := s.read(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *documentStore[T]) get(ctx context.Context, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(ctx, id)
}

func (s *documentStore[T]) read(_ context.Context, id string) (*T, error) {
	filePath, err := s.filePath(id)
	if err != nil {
		return nil, s.notFound
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, s.notFound
		}

		return nil, fmt.Errorf("failed to fetch %s %s: %w", s.entity, id, err)
	}

	var item T

	err = json.Unmarshal(body, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", s.entity, id, err)
	}

	return &item, nil
}

// save writes to a temporary file and renames it so readers never observe a
// partially written document.
func (s *documentStore[T]) save(_ context.Context, item *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idOf(item)

	filePath, err := s.filePath(id)
	if err != nil {
		return err
	}

	err = os.MkdirAll(s.dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", s.entity, err)
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", s.entity, id, err)
	}

	tmp := filePath + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", s.entity, id, err)
	}

	err = os.Rename(tmp, filePath)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", s.entity, id, err)
	}

	return nil
}

func (s *documentStore[T]) delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath, err := s.filePath(id)
	if err != nil {
		return s.notFound
	}

	err = os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.notFound
		}

		return fmt.Errorf("failed to delete %s %s: %w", s.entity, id, err)
	}

	return nil
}
