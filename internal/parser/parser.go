// Package parser classifies raw prompt input into a workflow type and
// extracts coarse requirements and tags. Classification is a deterministic
// keyword heuristic over the lower-cased content; it never fails, falling
// back to the general workflow for unclassifiable input.
package parser

import (
	"sort"
	"strings"

	"promptforge/internal/types"
)

// Parsed is the parser's output.
type Parsed struct {
	Workflow     types.WorkflowType `json:"workflow"`
	Requirements []string           `json:"requirements,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	// Content is the bounded, whitespace-normalized input text the rest of
	// the pipeline works from.
	Content string `json:"content"`
}

// workflowKeywords maps each inferable workflow to its signal vocabulary.
// Order of evaluation is fixed (see classify) so ties resolve the same way
// on every run.
var workflowKeywords = map[types.WorkflowType][]string{
	types.WorkflowBug: {
		"bug", "fix", "broken", "crash", "error", "fails", "failing", "failure",
		"doesn't work", "does not work", "can't", "cannot", "regression", "defect",
		"exception", "wrong", "incorrect",
	},
	types.WorkflowFeature: {
		"add", "implement", "new", "create", "support", "introduce", "enable",
		"build", "feature",
	},
	types.WorkflowRefactor: {
		"refactor", "restructure", "clean up", "cleanup", "simplify", "extract",
		"rename", "reorganize", "decouple", "tech debt",
	},
	types.WorkflowDocumentation: {
		"document", "documentation", "readme", "docs", "changelog", "comment",
		"guide", "tutorial",
	},
	types.WorkflowResearch: {
		"research", "investigate", "explore", "evaluate", "compare", "spike",
		"feasibility", "proof of concept",
	},
	types.WorkflowPRReview: {
		"review", "pull request", "pr review", "code review", "merge request",
	},
}

// classifyOrder fixes evaluation order: defect vocabulary is the strongest
// signal ("fix the login feature" is a bug, not a feature), review phrases
// beat their generic parts, feature verbs come last among the specific types.
var classifyOrder = []types.WorkflowType{
	types.WorkflowBug,
	types.WorkflowPRReview,
	types.WorkflowRefactor,
	types.WorkflowDocumentation,
	types.WorkflowResearch,
	types.WorkflowFeature,
}

// techKeywords feed tag extraction; values are the canonical tag.
var techKeywords = map[string]string{
	"api": "api", "database": "database", "db": "database", "sql": "database",
	"frontend": "frontend", "ui": "frontend", "css": "frontend",
	"backend": "backend", "server": "backend",
	"auth": "auth", "login": "auth", "password": "auth", "oauth": "auth",
	"test": "testing", "tests": "testing", "testing": "testing",
	"performance": "performance", "slow": "performance", "latency": "performance",
	"security": "security", "vulnerability": "security",
	"docker": "infra", "deploy": "infra", "ci": "infra",
	"cache": "caching", "caching": "caching",
}

// Parse consumes a raw input. Pure: no I/O, no state.
func Parse(raw types.RawPromptInput) Parsed {
	content := normalizeContent(raw.Content)
	lower := strings.ToLower(content)

	out := Parsed{
		Workflow: classify(raw, lower),
		Content:  content,
	}
	out.Requirements = extractRequirements(content)
	out.Tags = extractTags(raw, lower)
	return out
}

// classify resolves the workflow type. An explicit, valid hint on the input
// always wins over inference.
func classify(raw types.RawPromptInput, lower string) types.WorkflowType {
	if raw.Type != "" {
		if w, ok := types.ParseWorkflowType(string(raw.Type)); ok {
			return w
		}
	}
	best := types.WorkflowGeneral
	bestHits := 0
	for _, w := range classifyOrder {
		hits := 0
		for _, kw := range workflowKeywords[w] {
			if containsWord(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = w, hits
		}
	}
	return best
}

// containsWord reports whether kw occurs in text on word boundaries.
// Multi-word phrases match as plain substrings.
func containsWord(text, kw string) bool {
	if strings.ContainsRune(kw, ' ') || strings.ContainsRune(kw, '\'') {
		return strings.Contains(text, kw)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// extractRequirements splits the content into candidate requirement lines:
// bullet items and sentences opening with an imperative verb.
func extractRequirements(content string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-*•"))
		if len(s) < 8 {
			return
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•") {
			add(trimmed)
			continue
		}
		for _, sentence := range splitSentences(trimmed) {
			if startsImperative(sentence) {
				add(sentence)
			}
		}
	}
	return out
}

var imperativeVerbs = []string{
	"add", "implement", "create", "build", "fix", "update", "remove", "delete",
	"refactor", "document", "support", "ensure", "make", "write", "migrate",
	"investigate", "review", "rename", "extract",
}

func startsImperative(sentence string) bool {
	first := strings.ToLower(strings.TrimSpace(sentence))
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	for _, v := range imperativeVerbs {
		if first == v {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == ';' {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// extractTags merges caller-supplied metadata tags with detected tech
// keywords: metadata order first, detected tags sorted for determinism.
func extractTags(raw types.RawPromptInput, lower string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if raw.Metadata != nil {
		for _, t := range raw.Metadata.Tags {
			add(t)
		}
	}
	var detected []string
	for kw, tag := range techKeywords {
		if containsWord(lower, kw) {
			detected = append(detected, tag)
		}
	}
	sort.Strings(detected)
	for _, t := range detected {
		add(t)
	}
	return out
}

// normalizeContent trims, collapses CRLF, and bounds the content length.
func normalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) > types.MaxContentLen {
		content = string(runes[:types.MaxContentLen])
	}
	return content
}
