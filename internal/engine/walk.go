package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/keyguard/keyguard/internal/ignore"
)

// Walk traverses the working tree and invokes handle with the root-relative
// path of each eligible file. Eligibility is decided from directory entry
// metadata alone; content checks happen when the file is read.
func Walk(cfg Config, ign ignore.Matcher, handle func(rel string)) error {
	var gi *gitignore.GitIgnore
	if cfg.RespectGitignore {
		gi, _ = gitignore.CompileIgnoreFile(filepath.Join(cfg.Root, ".gitignore"))
	}

	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		if isHidden(d.Name()) {
			return nil
		}
		if isSkippedExtension(rel) {
			return nil
		}
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		info, _ := d.Info()
		if info != nil && info.Size() > cfg.MaxBytes {
			return nil
		}
		handle(rel)
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// readText reads a file and reports whether it is scannable text. Oversized
// and NUL-bearing files report false, as does any read error.
func readText(path string, maxBytes int64) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if int64(len(b)) > maxBytes {
		return nil, false
	}
	if looksBinary(b) {
		return nil, false
	}
	return b, true
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := len(b)
	if n > sniff {
		n = sniff
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}
