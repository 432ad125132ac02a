package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"promptforge/internal/types"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		if s.path == "" {
			return
		}
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []*types.StructuredPrompt
		if err := json.Unmarshal(b, &rows); err != nil {
			s.log.Warn("prompt store file unreadable", map[string]any{"path": s.path, "error": err.Error()})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			if row == nil || strings.TrimSpace(row.ID) == "" {
				continue
			}
			s.byID[row.ID] = row
		}
	})
}

// flushFile rewrites the whole file. Caller must not hold the mutex.
func (s *Store) flushFile() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	rows := make([]*types.StructuredPrompt, 0, len(s.byID))
	for _, p := range s.byID {
		rows = append(rows, p)
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) saveFile(p *types.StructuredPrompt) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.byID[p.ID] = p.Clone()
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) retrieveFile(id string) (*types.StructuredPrompt, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	p, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: retrieve %q: %w", id, types.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *Store) updateFile(id string, mutate func(*types.StructuredPrompt)) (*types.StructuredPrompt, error) {
	s.ensureLoadedFile()
	s.mu.Lock()
	p, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("store: update %q: %w", id, types.ErrNotFound)
	}
	updated := p.Clone()
	mutate(updated)
	updated.ID = id
	s.byID[id] = updated
	s.mu.Unlock()
	if err := s.flushFile(); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (s *Store) searchFile(q Query) ([]*types.StructuredPrompt, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	var out []*types.StructuredPrompt
	for _, p := range s.byID {
		if q.matches(p) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Validation.Score != out[j].Validation.Score {
			return out[i].Validation.Score > out[j].Validation.Score
		}
		return out[i].Metadata.UpdatedAt.After(out[j].Metadata.UpdatedAt)
	})
	return out, nil
}
