// Package analyzer builds a PromptContext snapshot for a project tree:
// relevance-ranked files, declared dependencies, and a detected technology
// stack. Ranking is lexical overlap between path tokens and salient terms
// from the raw instruction; no semantic program analysis.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"promptforge/internal/scan"
	"promptforge/internal/trace"
	"promptforge/internal/types"
)

const (
	DefaultMaxFiles  = 20
	DefaultMaxTokens = 4000

	snapshotCacheSize = 64
)

// Options bounds the produced context.
type Options struct {
	// MaxFiles caps relevant files; <= 0 means DefaultMaxFiles.
	MaxFiles int
	// MaxTokens is the approximate token budget for the whole context
	// payload; <= 0 means DefaultMaxTokens. Truncation drops the
	// lowest-ranked entries first.
	MaxTokens int
	// IgnoreGlobs are extra doublestar patterns excluded from the scan.
	IgnoreGlobs []string
}

// snapshot is the cacheable, raw-text-independent view of a project.
type snapshot struct {
	files       []scan.FileVisit
	deps        []string
	stack       []string
	overview    string
	state       string
	fingerprint string
}

// Analyzer scans project roots. The snapshot cache is keyed by project root
// plus manifest content hash; it is a pure optimization and may be dropped
// at any time without changing results.
type Analyzer struct {
	opts  Options
	log   *trace.Logger
	cache *lru.Cache[string, snapshot]
}

// New returns an Analyzer. logger may be nil.
func New(opts Options, logger *trace.Logger) *Analyzer {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	cache, err := lru.New[string, snapshot](snapshotCacheSize)
	if err != nil {
		cache = nil
	}
	return &Analyzer{opts: opts, log: logger, cache: cache}
}

// Analyze produces the context snapshot for projectRoot ranked against
// rawText. An empty or inaccessible root yields an empty context, not an
// error. The returned value is never mutated afterward.
func (a *Analyzer) Analyze(ctx context.Context, projectRoot, rawText string) (types.PromptContext, error) {
	if a == nil {
		return types.PromptContext{}, nil
	}
	root := strings.TrimSpace(projectRoot)
	if root == "" {
		return types.PromptContext{}, nil
	}
	if err := ctx.Err(); err != nil {
		return types.PromptContext{}, nil
	}

	snap := a.snapshot(root)
	terms := salientTerms(rawText)
	ranked := rankFiles(snap.files, terms)

	if len(ranked) > a.opts.MaxFiles {
		ranked = ranked[:a.opts.MaxFiles]
	}
	out := types.PromptContext{
		ProjectOverview: snap.overview,
		RelevantFiles:   make([]types.RelevantFile, 0, len(ranked)),
		Dependencies:    snap.deps,
		TechnicalStack:  snap.stack,
		CurrentState:    snap.state,
	}
	for _, r := range ranked {
		out.RelevantFiles = append(out.RelevantFiles, types.RelevantFile{
			Path:      r.path,
			Relevance: r.summary(),
		})
	}
	a.applyTokenBudget(&out)
	return out, nil
}

// snapshot returns the cached project view, rescanning when the manifest
// fingerprint changed.
func (a *Analyzer) snapshot(root string) snapshot {
	deps, stack, fingerprint := readManifests(root)
	key := root + "\x00" + fingerprint
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached
		}
	}

	var files []scan.FileVisit
	_ = scan.Walk(root, scan.Options{IgnoreGlobs: a.opts.IgnoreGlobs}, func(f scan.FileVisit) {
		files = append(files, f)
	})

	snap := snapshot{
		files:       files,
		deps:        deps,
		stack:       mergeStack(stack, files),
		fingerprint: fingerprint,
	}
	snap.overview = buildOverview(root, files, snap.stack)
	snap.state = buildState(files, deps)
	if a.cache != nil {
		a.cache.Add(key, snap)
	}
	a.log.Debug("project scanned", map[string]any{"root": root, "files": len(files)})
	return snap
}

// mergeStack combines manifest-derived tags with extension-derived ones,
// keeping manifest order first and sorting the detected remainder.
func mergeStack(manifest []string, files []scan.FileVisit) []string {
	counts := make(map[string]int)
	for _, f := range files {
		if tag, ok := extStack[f.Ext]; ok {
			counts[tag]++
		}
	}
	out := append([]string(nil), manifest...)
	seen := make(map[string]struct{}, len(out))
	for _, tag := range out {
		seen[tag] = struct{}{}
	}
	var detected []string
	for tag, n := range counts {
		if n < 2 {
			// A lone file of some language is noise, not stack.
			continue
		}
		if _, dup := seen[tag]; !dup {
			detected = append(detected, tag)
		}
	}
	sort.Strings(detected)
	return append(out, detected...)
}

func buildOverview(root string, files []scan.FileVisit, stack []string) string {
	if len(files) == 0 {
		return ""
	}
	topDirs := make(map[string]struct{})
	for _, f := range files {
		if i := strings.IndexByte(f.Path, '/'); i > 0 {
			topDirs[f.Path[:i]] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(topDirs))
	for d := range topDirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	if len(dirs) > 8 {
		dirs = dirs[:8]
	}
	overview := fmt.Sprintf("Project at %s with %d files", root, len(files))
	if len(dirs) > 0 {
		overview += "; top-level dirs: " + strings.Join(dirs, ", ")
	}
	if len(stack) > 0 {
		overview += "; stack: " + strings.Join(stack, ", ")
	}
	return overview
}

func buildState(files []scan.FileVisit, deps []string) string {
	if len(files) == 0 {
		return ""
	}
	return fmt.Sprintf("%d files indexed, %d declared dependencies", len(files), len(deps))
}

type rankedFile struct {
	path    string
	depth   int
	score   int
	matched []string
}

func (r rankedFile) summary() string {
	if len(r.matched) == 0 {
		return "shallow project file"
	}
	terms := r.matched
	if len(terms) > 4 {
		terms = terms[:4]
	}
	return "matches: " + strings.Join(terms, ", ")
}

// rankFiles orders candidates by lexical overlap with terms; ties broken by
// shallower path depth, then lexicographic path order. Zero-overlap files
// rank last but remain candidates so small term sets still fill the list.
func rankFiles(files []scan.FileVisit, terms []string) []rankedFile {
	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[t] = struct{}{}
	}
	ranked := make([]rankedFile, 0, len(files))
	for _, f := range files {
		r := rankedFile{path: f.Path, depth: strings.Count(f.Path, "/")}
		for _, tok := range pathTokens(f.Path) {
			if _, ok := termSet[tok]; ok {
				r.score++
				r.matched = append(r.matched, tok)
			}
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].depth != ranked[j].depth {
			return ranked[i].depth < ranked[j].depth
		}
		return ranked[i].path < ranked[j].path
	})
	return ranked
}

// estimateTokens approximates tokens as len/4, good enough for budget
// checks without a tokenizer round trip.
func estimateTokens(s string) int {
	return len(s) / 4
}

// applyTokenBudget drops the lowest-ranked file entries until the payload
// fits MaxTokens. The fixed fields always survive.
func (a *Analyzer) applyTokenBudget(pc *types.PromptContext) {
	budget := a.opts.MaxTokens
	used := estimateTokens(pc.ProjectOverview) + estimateTokens(pc.CurrentState) +
		estimateTokens(strings.Join(pc.Dependencies, " ")) +
		estimateTokens(strings.Join(pc.TechnicalStack, " "))
	kept := pc.RelevantFiles[:0]
	for _, f := range pc.RelevantFiles {
		cost := estimateTokens(f.Path + f.Relevance)
		if used+cost > budget {
			break
		}
		used += cost
		kept = append(kept, f)
	}
	pc.RelevantFiles = kept
}
