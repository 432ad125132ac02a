package analyzer

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// manifestFiles are the declared-dependency manifests the analyzer reads,
// in detection order. Each contributes dependency names and a stack tag.
var manifestFiles = []struct {
	name  string
	stack string
	parse func(b []byte) []string
}{
	{"go.mod", "Go", parseGoMod},
	{"package.json", "JavaScript", parsePackageJSON},
	{"requirements.txt", "Python", parseRequirements},
	{"pyproject.toml", "Python", parsePyproject},
	{"Cargo.toml", "Rust", parseCargoToml},
	{"Gemfile", "Ruby", parseGemfile},
	{"pom.xml", "Java", parsePomXML},
	{"build.gradle", "Java", parseGradle},
}

// extStack maps file extensions to technology tags for stack detection.
var extStack = map[string]string{
	".go": "Go", ".js": "JavaScript", ".jsx": "JavaScript", ".ts": "TypeScript",
	".tsx": "TypeScript", ".py": "Python", ".rs": "Rust", ".rb": "Ruby",
	".java": "Java", ".kt": "Kotlin", ".c": "C", ".cc": "C++", ".cpp": "C++",
	".cs": "C#", ".php": "PHP", ".swift": "Swift", ".sql": "SQL",
	".sh": "Shell", ".tf": "Terraform", ".proto": "Protobuf",
	".css": "CSS", ".scss": "CSS", ".html": "HTML", ".vue": "Vue",
}

// readManifests scans the project root (top level only) for dependency
// manifests. A missing manifest yields empty sets, never an error.
func readManifests(root string) (deps, stack []string, fingerprint string) {
	h := fnv.New64a()
	seenDep := make(map[string]struct{})
	seenStack := make(map[string]struct{})
	for _, m := range manifestFiles {
		b, err := os.ReadFile(filepath.Join(root, m.name))
		if err != nil {
			continue
		}
		_, _ = h.Write([]byte(m.name))
		_, _ = h.Write(b)
		if _, dup := seenStack[m.stack]; !dup {
			seenStack[m.stack] = struct{}{}
			stack = append(stack, m.stack)
		}
		for _, d := range m.parse(b) {
			d = strings.TrimSpace(d)
			if d == "" {
				continue
			}
			if _, dup := seenDep[d]; dup {
				continue
			}
			seenDep[d] = struct{}{}
			deps = append(deps, d)
		}
	}
	sort.Strings(deps)
	return deps, stack, fmt.Sprintf("%016x", h.Sum64())
}

func parseGoMod(b []byte) []string {
	var out []string
	inBlock := false
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "require ("):
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock || strings.HasPrefix(line, "require "):
			line = strings.TrimPrefix(line, "require ")
			if strings.Contains(line, "// indirect") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) >= 1 && strings.Contains(fields[0], "/") {
				out = append(out, fields[0])
			}
		}
	}
	return out
}

func parsePackageJSON(b []byte) []string {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(b, &pkg); err != nil {
		return nil
	}
	var out []string
	for name := range pkg.Dependencies {
		out = append(out, name)
	}
	for name := range pkg.DevDependencies {
		out = append(out, name)
	}
	return out
}

func parseRequirements(b []byte) []string {
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "[", ";", " "} {
			if i := strings.Index(line, sep); i > 0 {
				line = line[:i]
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parsePyproject(b []byte) []string {
	// Crude line scan of the dependencies arrays; a full TOML parse buys
	// nothing for name extraction.
	var out []string
	inDeps := false
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "dependencies") && strings.Contains(line, "[") {
			inDeps = true
			continue
		}
		if inDeps {
			if strings.HasPrefix(line, "]") {
				inDeps = false
				continue
			}
			name := strings.Trim(line, `",`)
			for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "[", ";", " "} {
				if i := strings.Index(name, sep); i > 0 {
					name = name[:i]
				}
			}
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func parseCargoToml(b []byte) []string {
	var out []string
	inDeps := false
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inDeps = strings.HasPrefix(line, "[dependencies") || strings.HasPrefix(line, "[dev-dependencies")
			continue
		}
		if !inDeps || line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			out = append(out, strings.TrimSpace(line[:i]))
		}
	}
	return out
}

func parseGemfile(b []byte) []string {
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "gem ") {
			continue
		}
		rest := strings.TrimPrefix(line, "gem ")
		rest = strings.Trim(strings.SplitN(rest, ",", 2)[0], `'" `)
		if rest != "" {
			out = append(out, rest)
		}
	}
	return out
}

func parsePomXML(b []byte) []string {
	var out []string
	s := string(b)
	for {
		i := strings.Index(s, "<artifactId>")
		if i < 0 {
			break
		}
		s = s[i+len("<artifactId>"):]
		j := strings.Index(s, "</artifactId>")
		if j < 0 {
			break
		}
		if name := strings.TrimSpace(s[:j]); name != "" {
			out = append(out, name)
		}
		s = s[j:]
	}
	return out
}

func parseGradle(b []byte) []string {
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "implementation") && !strings.HasPrefix(line, "api ") &&
			!strings.HasPrefix(line, "testImplementation") {
			continue
		}
		start := strings.IndexAny(line, `'"`)
		if start < 0 {
			continue
		}
		end := strings.IndexAny(line[start+1:], `'"`)
		if end < 0 {
			continue
		}
		coord := line[start+1 : start+1+end]
		// group:artifact:version -> group:artifact
		parts := strings.Split(coord, ":")
		if len(parts) >= 2 {
			out = append(out, parts[0]+":"+parts[1])
		}
	}
	return out
}
