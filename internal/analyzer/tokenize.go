package analyzer

import (
	"strings"
	"unicode"
)

// stopwords are excluded from salient terms; they match every project.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "into": {}, "when": {}, "after": {}, "before": {}, "should": {},
	"would": {}, "could": {}, "can": {}, "not": {}, "all": {}, "are": {},
	"was": {}, "were": {}, "has": {}, "have": {}, "its": {}, "our": {},
	"you": {}, "your": {}, "they": {}, "their": {}, "use": {}, "using": {},
	"add": {}, "new": {}, "fix": {}, "make": {}, "set": {}, "get": {},
}

// identWords collects lowercased ident-like words: a Unicode letter or '_'
// start, letter/digit/'_' continuation. Numbers and symbols are delimiters.
func identWords(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '_' || unicode.IsLetter(r):
			cur.WriteRune(r)
		case unicode.IsDigit(r) && cur.Len() > 0:
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

// salientTerms extracts the ranking vocabulary from raw text: ident words of
// three or more runes minus stopwords, deduplicated in first-seen order.
func salientTerms(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range identWords(text) {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// pathTokens splits a repo-relative path into comparable tokens: separators,
// extension dots, kebab/snake boundaries, and camelCase humps all delimit.
func pathTokens(path string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, segment := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '.' || r == '-' || r == '_' || r == ' '
	}) {
		for _, tok := range splitCamel(segment) {
			tok = strings.ToLower(tok)
			if len(tok) < 2 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

func splitCamel(s string) []string {
	var out []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	out = append(out, string(runes[start:]))
	return out
}
