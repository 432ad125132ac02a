// Package store persists, retrieves, updates, and searches structured
// prompts. A configured postgres DSN selects the database backend;
// otherwise records live in a JSON file loaded once and rewritten on
// change. Storage operations are all-or-nothing per record.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"promptforge/internal/trace"
	"promptforge/internal/types"
	"promptforge/internal/validator"
)

// EnvDSN selects the postgres backend when set.
const EnvDSN = "PROMPTFORGE_PG_DSN"

// Store is the persistence front. Concurrent updates against the same id
// are serialized by the backend (row transaction or the store mutex).
type Store struct {
	path string
	db   *sql.DB
	log  *trace.Logger

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]*types.StructuredPrompt

	schemaOnce sync.Once
	schemaErr  error
}

// New returns a file-backed store at path.
func New(path string, logger *trace.Logger) *Store {
	return &Store{
		path: strings.TrimSpace(path),
		log:  logger,
		byID: make(map[string]*types.StructuredPrompt),
	}
}

// NewPostgres returns a database-backed store.
func NewPostgres(dsn string, logger *trace.Logger) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: logger}, nil
}

// NewFromEnv picks postgres when EnvDSN is set and reachable, the file
// backend otherwise.
func NewFromEnv(path string, logger *trace.Logger) *Store {
	dsn := strings.TrimSpace(os.Getenv(EnvDSN))
	if dsn == "" {
		return New(path, logger)
	}
	s, err := NewPostgres(dsn, logger)
	if err != nil {
		logger.Warn("postgres unavailable, using file store", map[string]any{"error": err.Error()})
		return New(path, logger)
	}
	return s
}

// Close releases the database handle if any.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists p and returns its id, assigning one when empty. A record
// whose validation was computed against stale field values is rejected;
// the caller must re-validate after any edit.
func (s *Store) Save(ctx context.Context, p *types.StructuredPrompt) (string, error) {
	if s == nil || p == nil {
		return "", fmt.Errorf("store: nil prompt")
	}
	if !p.ValidationCurrent() {
		return "", fmt.Errorf("store: save %q: %w", p.ID, types.ErrStaleValidation)
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.Metadata.CreatedAt.IsZero() {
		p.Metadata.CreatedAt = now
	}
	if p.Metadata.UpdatedAt.IsZero() {
		p.Metadata.UpdatedAt = now
	}
	if s.db != nil {
		if err := s.saveDB(ctx, p); err != nil {
			return "", err
		}
		return p.ID, nil
	}
	if err := s.saveFile(p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Retrieve returns a deep copy of the record, or types.ErrNotFound.
func (s *Store) Retrieve(ctx context.Context, id string) (*types.StructuredPrompt, error) {
	if s == nil {
		return nil, types.ErrNotFound
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("store: retrieve: %w", types.ErrNotFound)
	}
	if s.db != nil {
		return s.retrieveDB(ctx, id)
	}
	return s.retrieveFile(id)
}

// Update is a partial update: nil fields are left untouched; the project
// context is only replaced when the partial includes it. Validation is
// re-run and UpdatedAt bumped before committing.
type Update struct {
	Instruction     *string
	SuccessCriteria *[]string
	Constraints     *[]string
	Examples        *[]string
	ExpectedOutput  *types.ExpectedOutput
	Tags            *[]string
	Context         *types.PromptContext
	Complexity      *types.Complexity
	SuggestedSteps  *[]string
}

func (u Update) apply(p *types.StructuredPrompt) {
	if u.Instruction != nil {
		p.Instruction = *u.Instruction
	}
	if u.SuccessCriteria != nil {
		p.SuccessCriteria = append([]string(nil), (*u.SuccessCriteria)...)
	}
	if u.Constraints != nil {
		p.Constraints = append([]string(nil), (*u.Constraints)...)
	}
	if u.Examples != nil {
		p.Examples = append([]string(nil), (*u.Examples)...)
	}
	if u.ExpectedOutput != nil {
		p.ExpectedOutput = *u.ExpectedOutput
	}
	if u.Tags != nil {
		p.Metadata.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Context != nil {
		p.Context = *u.Context
	}
	if u.Complexity != nil {
		p.Complexity = *u.Complexity
	}
	if u.SuggestedSteps != nil {
		p.SuggestedSteps = append([]string(nil), (*u.SuggestedSteps)...)
	}
}

// ApplyUpdate applies the partial, re-validates, and commits. Returns
// types.ErrNotFound for an unknown id.
func (s *Store) ApplyUpdate(ctx context.Context, id string, u Update) (*types.StructuredPrompt, error) {
	if s == nil {
		return nil, types.ErrNotFound
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("store: update: %w", types.ErrNotFound)
	}
	mutate := func(p *types.StructuredPrompt) {
		u.apply(p)
		p.Metadata.UpdatedAt = time.Now().UTC()
		p.Validation = validator.Validate(p)
	}
	if s.db != nil {
		return s.updateDB(ctx, id, mutate)
	}
	return s.updateFile(id, mutate)
}

// Query filters Search with AND semantics; zero values match everything.
type Query struct {
	Workflow types.WorkflowType
	Tags     []string
	MinScore int
}

func (q Query) matches(p *types.StructuredPrompt) bool {
	if q.Workflow != "" && p.Workflow != q.Workflow {
		return false
	}
	if p.Validation.Score < q.MinScore {
		return false
	}
	if len(q.Tags) > 0 {
		have := make(map[string]struct{}, len(p.Metadata.Tags))
		for _, t := range p.Metadata.Tags {
			have[strings.ToLower(t)] = struct{}{}
		}
		for _, t := range q.Tags {
			if _, ok := have[strings.ToLower(t)]; !ok {
				return false
			}
		}
	}
	return true
}

// Search returns matching records ordered by descending score, ties broken
// by most recent UpdatedAt.
func (s *Store) Search(ctx context.Context, q Query) ([]*types.StructuredPrompt, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.searchDB(ctx, q)
	}
	return s.searchFile(q)
}
