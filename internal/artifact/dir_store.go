package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore keeps artifacts under a local directory, one subdirectory per
// prompt id.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("artifact: dir root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create root: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) filePath(promptID, name string) string {
	return filepath.Join(s.root, filepath.FromSlash(objectKey(promptID, name)))
}

func (s *DirStore) Put(_ context.Context, promptID, name, _ string, body []byte) error {
	if err := checkKey(promptID, name); err != nil {
		return err
	}
	path := s.filePath(promptID, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}

func (s *DirStore) Get(_ context.Context, promptID, name string) ([]byte, error) {
	if err := checkKey(promptID, name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.filePath(promptID, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *DirStore) List(_ context.Context, promptID string) ([]string, error) {
	if strings.TrimSpace(promptID) == "" {
		return nil, fmt.Errorf("artifact: prompt id is required")
	}
	dir := filepath.Join(s.root, strings.TrimSpace(promptID))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
