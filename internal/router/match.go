package router

import (
	"regexp"
	"strconv"
	"strings"
)

// Params are the captured path segments, in order.
type Params []string

// Int64 parses the i-th param. Missing or non-numeric params report false.
func (p Params) Int64(i int) (int64, bool) {
	if i < 0 || i >= len(p) {
		return 0, false
	}
	n, err := strconv.ParseInt(p[i], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// At returns the i-th param or "".
func (p Params) At(i int) string {
	if i < 0 || i >= len(p) {
		return ""
	}
	return p[i]
}

// Matcher tests a normalized path against a compiled pattern.
type Matcher interface {
	Match(path string) (Params, bool)
}

type exactMatcher string

func (m exactMatcher) Match(path string) (Params, bool) {
	if path != string(m) {
		return nil, false
	}
	return nil, true
}

// Exact matches one literal path.
func Exact(path string) Matcher {
	return exactMatcher(Normalize(path))
}

type patternMatcher struct {
	segments []string
	captures []bool
}

// Pattern matches paths segment by segment. A segment written as {name}
// captures any single non-empty segment; everything else must match
// literally. The whole path must be consumed.
func Pattern(pattern string) Matcher {
	segments := splitPath(Normalize(pattern))
	captures := make([]bool, len(segments))
	for i, seg := range segments {
		if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			captures[i] = true
		}
	}
	return patternMatcher{segments: segments, captures: captures}
}

func (m patternMatcher) Match(path string) (Params, bool) {
	segments := splitPath(path)
	if len(segments) != len(m.segments) {
		return nil, false
	}
	var params Params
	for i, seg := range segments {
		if m.captures[i] {
			if seg == "" {
				return nil, false
			}
			params = append(params, seg)
			continue
		}
		if seg != m.segments[i] {
			return nil, false
		}
	}
	return params, true
}

type regexpMatcher struct {
	re *regexp.Regexp
}

// Regexp matches with a regular expression anchored at both ends. Capture
// groups become params. It panics if expr does not compile.
func Regexp(expr string) Matcher {
	return regexpMatcher{re: regexp.MustCompile(`^(?:` + expr + `)$`)}
}

func (m regexpMatcher) Match(path string) (Params, bool) {
	groups := m.re.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}
	if len(groups) == 1 {
		return nil, true
	}
	return Params(append([]string(nil), groups[1:]...)), true
}

// Normalize cleans a navigation target: a leading "#" is dropped, empty
// becomes "/", a leading slash is added and a trailing one removed.
func Normalize(path string) string {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "#")
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
