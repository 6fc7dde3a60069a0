// Package ignore implements the .keyguardignore matcher: a small
// gitignore-like pattern list scoped to scan paths.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Matcher decides whether a relative path is excluded from scanning.
type Matcher struct {
	dirs  []string // patterns ending in '/'
	globs []string // patterns containing glob metacharacters
	exact []string // everything else, matched against path and basename
}

// Load reads patterns from path. A missing file yields an empty matcher
// and no error; the ignore file is optional.
func Load(path string) (Matcher, error) {
	var m Matcher
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasSuffix(line, "/"):
			m.dirs = append(m.dirs, strings.TrimSuffix(line, "/"))
		case strings.ContainsAny(line, "*?["):
			m.globs = append(m.globs, line)
		default:
			m.exact = append(m.exact, line)
		}
	}
	return m, sc.Err()
}

// Match reports whether rel (slash-separated, relative to the scan root)
// is ignored.
func (m Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, d := range m.dirs {
		for _, seg := range parts[:len(parts)-1] {
			if seg == d {
				return true
			}
		}
	}
	base := parts[len(parts)-1]
	for _, g := range m.globs {
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
		if ok, _ := filepath.Match(g, rel); ok {
			return true
		}
	}
	for _, e := range m.exact {
		if rel == e || base == e {
			return true
		}
	}
	return false
}
