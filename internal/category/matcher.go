// internal/category/matcher.go

// Package category maintains the inverted category index and the
// tolerant matching used to compare category paths that were written
// by different versions of the registration flow.
package category

import (
	"regexp"
	"strings"
)

var (
	slashSpacing = regexp.MustCompile(`\s*/\s*`)
	arrowSpacing = regexp.MustCompile(`\s*>\s*`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// NormalizePath canonicalizes a category path: no spaces around "/",
// exactly one space around ">", single internal spaces, trimmed ends.
// "Home  >Lawn / Garden" and "Home > Lawn/Garden" normalize the same.
func NormalizePath(path string) string {
	p := strings.TrimSpace(path)
	p = slashSpacing.ReplaceAllString(p, "/")
	p = arrowSpacing.ReplaceAllString(p, " > ")
	p = multiSpace.ReplaceAllString(p, " ")
	return strings.TrimSpace(p)
}

// ExtractTerminalSubcategory returns the segment after the last ">".
// Paths without a ">" have no terminal subcategory.
func ExtractTerminalSubcategory(path string) string {
	normalized := NormalizePath(path)
	idx := strings.LastIndex(normalized, " > ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(normalized[idx+3:])
}

// Matcher compares category paths using progressively looser rules.
type Matcher struct {
	families *Families
}

func NewMatcher(families *Families) *Matcher {
	return &Matcher{families: families}
}

// Matches reports whether candidate should count as a hit for target.
// Both are normalized, then tried in order: exact match, candidate
// nested under target, candidate containing target as a substring, and
// finally the configured keyword exception groups for paths that share
// no text at all (pest control vs wildlife removal and the like).
func (m *Matcher) Matches(candidate, target string) bool {
	c := strings.ToLower(NormalizePath(candidate))
	t := strings.ToLower(NormalizePath(target))
	if c == "" || t == "" {
		return false
	}
	if c == t {
		return true
	}
	if strings.HasPrefix(c, t+" >") {
		return true
	}
	if strings.Contains(c, t) {
		return true
	}
	if m.families != nil && m.families.SameExceptionGroup(c, t) {
		return true
	}
	return false
}

// MatchesAny reports whether any candidate matches target.
func (m *Matcher) MatchesAny(candidates []string, target string) bool {
	for _, c := range candidates {
		if m.Matches(c, target) {
			return true
		}
	}
	return false
}
