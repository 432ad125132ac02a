package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"promptforge/internal/types"
)

// The record body is stored as a JSONB blob; workflow, score, updated_at,
// and tags are indexed columns backing Search.
func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS structured_prompts (
  id TEXT PRIMARY KEY,
  workflow TEXT NOT NULL,
  score INT NOT NULL DEFAULT 0,
  tags JSONB NOT NULL DEFAULT '[]'::jsonb,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  record JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_structured_prompts_workflow ON structured_prompts (workflow);
CREATE INDEX IF NOT EXISTS idx_structured_prompts_score ON structured_prompts (score DESC);
CREATE INDEX IF NOT EXISTS idx_structured_prompts_tags ON structured_prompts USING GIN (tags);
`)
	})
	return s.schemaErr
}

func (s *Store) saveDB(ctx context.Context, p *types.StructuredPrompt) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	record, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", p.ID, err)
	}
	tags, _ := json.Marshal(lowerTags(p.Metadata.Tags))
	_, err = s.db.ExecContext(ctx, `
INSERT INTO structured_prompts (id, workflow, score, tags, updated_at, record)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET workflow = EXCLUDED.workflow,
  score = EXCLUDED.score,
  tags = EXCLUDED.tags,
  updated_at = EXCLUDED.updated_at,
  record = EXCLUDED.record`,
		p.ID, string(p.Workflow), p.Validation.Score, tags, p.Metadata.UpdatedAt, record)
	if err != nil {
		return fmt.Errorf("store: save %q: %w", p.ID, err)
	}
	return nil
}

func (s *Store) retrieveDB(ctx context.Context, id string) (*types.StructuredPrompt, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	var record []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM structured_prompts WHERE id = $1`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: retrieve %q: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: retrieve %q: %w", id, err)
	}
	return decodeRecord(id, record)
}

// updateDB serializes concurrent updates on the same id with a row lock.
func (s *Store) updateDB(ctx context.Context, id string, mutate func(*types.StructuredPrompt)) (*types.StructuredPrompt, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var record []byte
	err = tx.QueryRowContext(ctx,
		`SELECT record FROM structured_prompts WHERE id = $1 FOR UPDATE`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: update %q: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: update %q: %w", id, err)
	}
	p, err := decodeRecord(id, record)
	if err != nil {
		return nil, err
	}
	mutate(p)
	p.ID = id

	updated, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("store: encode %q: %w", id, err)
	}
	tags, _ := json.Marshal(lowerTags(p.Metadata.Tags))
	_, err = tx.ExecContext(ctx, `
UPDATE structured_prompts
SET workflow = $2, score = $3, tags = $4, updated_at = $5, record = $6
WHERE id = $1`,
		id, string(p.Workflow), p.Validation.Score, tags, p.Metadata.UpdatedAt, updated)
	if err != nil {
		return nil, fmt.Errorf("store: update %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit %q: %w", id, err)
	}
	return p, nil
}

func (s *Store) searchDB(ctx context.Context, q Query) ([]*types.StructuredPrompt, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	tags, _ := json.Marshal(lowerTags(q.Tags))
	rows, err := s.db.QueryContext(ctx, `
SELECT id, record FROM structured_prompts
WHERE ($1 = '' OR workflow = $1)
  AND score >= $2
  AND tags @> $3
ORDER BY score DESC, updated_at DESC`,
		string(q.Workflow), q.MinScore, tags)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []*types.StructuredPrompt
	for rows.Next() {
		var id string
		var record []byte
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("store: search scan: %w", err)
		}
		p, err := decodeRecord(id, record)
		if err != nil {
			s.log.Warn("skipping undecodable record", map[string]any{"id": id, "error": err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func decodeRecord(id string, record []byte) (*types.StructuredPrompt, error) {
	var p types.StructuredPrompt
	if err := json.Unmarshal(record, &p); err != nil {
		return nil, fmt.Errorf("store: decode %q: %w", id, err)
	}
	return &p, nil
}

func lowerTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.ToLower(strings.TrimSpace(t)))
	}
	return out
}
