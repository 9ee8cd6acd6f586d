package repo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreFileName is the per-directory ignore file tracked in the index.
const IgnoreFileName = ".palignore"

// ErrAbsolutePath is returned when an ignore check is given an absolute path.
var ErrAbsolutePath = errors.New("path must be relative to the repository root")

// IgnoreRule is one parsed ignore line. Ignore is false for negated ("!")
// rules, which re-include a path.
type IgnoreRule struct {
	Pattern string
	Ignore  bool

	hasSlash bool
	matcher  glob.Glob
}

// ParseIgnoreRule parses one line of an ignore file. Blank lines and
// comments return ok == false.
func ParseIgnoreRule(line string) (rule IgnoreRule, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return IgnoreRule{}, false, nil
	}

	rule.Ignore = true
	rule.Pattern = line
	expr := line
	switch {
	case strings.HasPrefix(line, "!"):
		rule.Ignore = false
		rule.Pattern = line[1:]
		expr = rule.Pattern
	case strings.HasPrefix(line, `\`):
		// expr keeps the backslash so the next rune compiles literally
		rule.Pattern = line[1:]
	}

	expr = strings.TrimSuffix(expr, "/")
	anchored := strings.HasPrefix(expr, "/")
	expr = strings.TrimPrefix(expr, "/")
	if expr == "" {
		return IgnoreRule{}, false, nil
	}
	rule.hasSlash = anchored || strings.Contains(expr, "/")
	rule.matcher, err = glob.Compile(expr, '/')
	if err != nil {
		return IgnoreRule{}, false, fmt.Errorf("ignore pattern %q: %w", line, err)
	}
	return rule, true, nil
}

// ParseIgnoreRules parses the content of an ignore file.
func ParseIgnoreRules(content string) ([]IgnoreRule, error) {
	var rules []IgnoreRule
	for _, line := range strings.Split(content, "\n") {
		rule, ok, err := ParseIgnoreRule(line)
		if err != nil {
			return nil, err
		}
		if ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

// matches reports whether the rule matches rel, a slash path relative to
// the directory the rule was declared in. A rule also matches every path
// below a matching directory.
func (ir IgnoreRule) matches(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := range parts {
		if ir.hasSlash {
			if ir.matcher.Match(strings.Join(parts[:i+1], "/")) {
				return true
			}
			continue
		}
		if ir.matcher.Match(parts[i]) {
			return true
		}
	}
	return false
}

// checkRuleSet applies rules in order; the last matching rule decides.
func checkRuleSet(rules []IgnoreRule, rel string) (ignored, matched bool) {
	for _, rule := range rules {
		if rule.matches(rel) {
			ignored, matched = rule.Ignore, true
		}
	}
	return ignored, matched
}

// IgnoreRules holds the rules in effect for a worktree. Scoped rules come
// from ignore files and apply to paths under their directory ("." is the
// root). Absolute rule sets apply everywhere and are consulted in order
// after the scoped rules.
type IgnoreRules struct {
	Absolute [][]IgnoreRule
	Scoped   map[string][]IgnoreRule
}

// Check reports whether a repository-relative slash path is ignored. The
// nearest scope with a matching rule decides; otherwise the first absolute
// rule set with a match decides; otherwise the path is not ignored.
func (ir *IgnoreRules) Check(p string) (bool, error) {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false, fmt.Errorf("check ignore %q: %w", p, ErrAbsolutePath)
	}
	p = path.Clean(filepath.ToSlash(p))

	dir := path.Dir(p)
	for {
		if rules, ok := ir.Scoped[dir]; ok {
			rel := p
			if dir != "." {
				rel = strings.TrimPrefix(p, dir+"/")
			}
			if ignored, matched := checkRuleSet(rules, rel); matched {
				return ignored, nil
			}
		}
		if dir == "." {
			break
		}
		dir = path.Dir(dir)
	}

	for _, rules := range ir.Absolute {
		if ignored, matched := checkRuleSet(rules, p); matched {
			return ignored, nil
		}
	}
	return false, nil
}

// IsIgnored is Check for callers that treat an invalid path as not ignored.
func (ir *IgnoreRules) IsIgnored(p string) bool {
	ignored, err := ir.Check(p)
	return err == nil && ignored
}

// ReadIgnoreRules loads scoped rules from every ignore file staged in the
// index and absolute rules from .pal/info/exclude. The metadata directory
// is always ignored.
func (r *Repo) ReadIgnoreRules() (*IgnoreRules, error) {
	builtin, _, err := ParseIgnoreRule(MetaDirName)
	if err != nil {
		return nil, err
	}
	rules := &IgnoreRules{
		Absolute: [][]IgnoreRule{{builtin}},
		Scoped:   make(map[string][]IgnoreRule),
	}

	data, err := os.ReadFile(filepath.Join(r.PalDir, "info", "exclude"))
	switch {
	case err == nil:
		exclude, err := ParseIgnoreRules(string(data))
		if err != nil {
			return nil, fmt.Errorf("read ignore rules: exclude: %w", err)
		}
		rules.Absolute = append(rules.Absolute, exclude)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read ignore rules: %w", err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("read ignore rules: %w", err)
	}
	for _, e := range idx.Entries {
		if path.Base(e.Name) != IgnoreFileName {
			continue
		}
		blob, err := r.Store.ReadBlob(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("read ignore rules: %s: %w", e.Name, err)
		}
		scoped, err := ParseIgnoreRules(string(blob.Data))
		if err != nil {
			return nil, fmt.Errorf("read ignore rules: %s: %w", e.Name, err)
		}
		rules.Scoped[path.Dir(e.Name)] = scoped
	}
	return rules, nil
}
