// Package pathfilter evaluates the exclusion rules of a backup run.
//
// Rules are compiled once per run: glob patterns are expanded against the
// live filesystem a single time, so evaluating a candidate never touches
// the disk again. Decisions are deterministic for the lifetime of the
// filter.
package pathfilter

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/kebairia/fsbackup/internal/logger"
)

// ruleKind discriminates the compiled rule variants.
type ruleKind uint8

const (
	// kindLiteral matches any candidate the rule string is a prefix of.
	kindLiteral ruleKind = iota
	// kindGlobSet matches any candidate equal to or nested under one of
	// the concrete paths the pattern expanded to at compile time.
	kindGlobSet
)

// compiledRule is one exclusion rule in evaluated form.
type compiledRule struct {
	kind    ruleKind
	literal string
	// expanded holds the sorted concrete expansion of a glob pattern.
	expanded []string
}

// Filter holds the compiled exclusion rules for one run.
type Filter struct {
	rules []compiledRule
}

// New compiles the run's exclusion list. Patterns containing glob
// metacharacters are expanded immediately; everything else becomes a
// literal prefix rule. Unexpandable patterns are logged and skipped.
func New(patterns []string) *Filter {
	log := logger.Global()
	rules := make([]compiledRule, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !strings.ContainsAny(pattern, "*?[") {
			rules = append(rules, compiledRule{kind: kindLiteral, literal: pattern})
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			log.Warn("skipping malformed exclusion pattern",
				"pattern", pattern,
				"error", err.Error(),
			)
			continue
		}
		sort.Strings(matches)
		rules = append(rules, compiledRule{kind: kindGlobSet, expanded: matches})
	}
	return &Filter{rules: rules}
}

// Excludes reports whether candidate is removed from consideration by any
// rule. Directories for which this returns true must not be descended
// into; the whole subtree is excluded.
func (f *Filter) Excludes(candidate string) bool {
	for i := range f.rules {
		if f.rules[i].matches(candidate) {
			return true
		}
	}
	return false
}

func (r *compiledRule) matches(candidate string) bool {
	switch r.kind {
	case kindLiteral:
		return strings.HasPrefix(candidate, r.literal)
	case kindGlobSet:
		return containsOrCovers(r.expanded, candidate)
	}
	return false
}

// containsOrCovers reports whether candidate equals a member of the sorted
// set or is nested under one. It binary-searches the candidate and each of
// its ancestors, so cost is O(depth * log n), independent of tree size.
func containsOrCovers(sorted []string, candidate string) bool {
	if len(sorted) == 0 {
		return false
	}
	for p := candidate; ; {
		i := sort.SearchStrings(sorted, p)
		if i < len(sorted) && sorted[i] == p {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
