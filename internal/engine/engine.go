package engine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/keyguard/keyguard/internal/cache"
	"github.com/keyguard/keyguard/internal/detectors"
	"github.com/keyguard/keyguard/internal/git"
	"github.com/keyguard/keyguard/internal/ignore"
	"github.com/keyguard/keyguard/internal/log"
	"github.com/keyguard/keyguard/internal/types"
)

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root         string
	IncludeGlobs string
	ExcludeGlobs string
	MaxBytes     int64
	Threads      int

	// Git modes. HistoryCommits > 0 walks commit history;
	// CompareBranch != "" diffs two branches instead of the working tree.
	HistoryCommits int
	StartRef       string
	BaseBranch     string
	CompareBranch  string

	RespectGitignore bool
	NoCache          bool
	Progress         func()
}

const defaultMaxBytes = 10 << 20

// Result contains findings and basic scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	Duration     time.Duration
}

// Scan runs a scan and returns only findings (without stats).
func Scan(cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats runs a scan and returns findings along with timing and counts.
func ScanWithStats(cfg Config) (Result, error) {
	var result Result

	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}

	ign, _ := ignore.Load(filepath.Join(cfg.Root, ".keyguardignore"))

	var out []types.Finding
	var mu sync.Mutex
	started := time.Now()
	emit := func(fs []types.Finding) {
		if len(fs) == 0 {
			return
		}
		mu.Lock()
		out = append(out, fs...)
		mu.Unlock()
	}

	var err error
	switch {
	case cfg.HistoryCommits > 0:
		err = scanHistory(cfg, ign, emit, &result)
	case cfg.CompareBranch != "":
		err = scanDiff(cfg, ign, emit, &result)
	default:
		err = scanFilesystem(cfg, ign, emit, &result)
	}
	if err != nil {
		return result, err
	}

	result.Findings = out
	result.Duration = time.Since(started)
	if !cfg.NoCache {
		if err := cache.SaveResults(cfg.Root, out); err != nil {
			log.Debugf("could not save last-scan results: %v", err)
		}
	}
	return result, nil
}

// scanFilesystem walks the working tree and fans eligible files out to a
// fixed pool of workers. Each file is handled by exactly one worker.
func scanFilesystem(cfg Config, ign ignore.Matcher, emit func([]types.Finding), result *Result) error {
	var db *cache.Cache
	if !cfg.NoCache {
		db = cache.Open(cfg.Root)
	}

	paths := make(chan string, cfg.Threads*2)
	var wg sync.WaitGroup
	var count int
	var countMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for rel := range paths {
			emit(scanOneFile(cfg, db, rel))
			countMu.Lock()
			count++
			countMu.Unlock()
			if cfg.Progress != nil {
				cfg.Progress()
			}
		}
	}
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go worker()
	}

	err := Walk(cfg, ign, func(rel string) {
		paths <- rel
	})
	close(paths)
	wg.Wait()

	result.FilesScanned = count
	return err
}

// scanOneFile resolves one file to findings, consulting the cache first.
// Cache hits replay the redacted findings from the prior scan.
func scanOneFile(cfg Config, db *cache.Cache, rel string) []types.Finding {
	full := filepath.Join(cfg.Root, rel)

	if db != nil && db.IsCached(full) {
		var out []types.Finding
		for _, cf := range db.Get(full) {
			out = append(out, types.Finding{
				Provider:   cf.Provider,
				Key:        cf.KeyPrefix + "...",
				Confidence: types.ParseConfidence(cf.Confidence),
				Context:    cf.Context,
				Line:       cf.LineNumber,
				Path:       rel,
			})
		}
		log.Debugf("cache hit for %s (%d findings)", rel, len(out))
		return out
	}

	data, ok := readText(full, cfg.MaxBytes)
	if !ok {
		return nil
	}
	findings := detectors.ScanLines(string(data), rel)
	if db != nil {
		db.Update(full, findings)
	}
	return findings
}

// scanHistory classifies every blob touched by the last N commits. Context
// and path carry the originating commit so a hit can be traced even after
// the file was rewritten.
func scanHistory(cfg Config, ign ignore.Matcher, emit func([]types.Finding), result *Result) error {
	entries, err := git.History(cfg.Root, cfg.StartRef, cfg.HistoryCommits)
	if err != nil {
		return err
	}
	for _, e := range entries {
		tag := fmt.Sprintf("[Git commit %s] ", e.ShortHash())
		for path, blob := range e.Files {
			if !allowedByGlobs(path, cfg) || ign.Match(path) {
				continue
			}
			if int64(len(blob)) > cfg.MaxBytes || looksBinary(blob) {
				continue
			}
			findings := detectors.ScanLines(string(blob), path)
			for i := range findings {
				findings[i].Context = tag + findings[i].Context
				findings[i].Path = "[Historical] " + findings[i].Path
			}
			emit(findings)
			result.FilesScanned++
			if cfg.Progress != nil {
				cfg.Progress()
			}
		}
	}
	return nil
}

// scanDiff classifies files that differ between a base branch and a
// compare branch, using the compare side's content.
func scanDiff(cfg Config, ign ignore.Matcher, emit func([]types.Finding), result *Result) error {
	files, data, err := git.DiffBranches(cfg.Root, cfg.BaseBranch, cfg.CompareBranch)
	if err != nil {
		return err
	}
	tag := fmt.Sprintf("[Branch diff %s..%s] ", cfg.BaseBranch, cfg.CompareBranch)
	for i, p := range files {
		if !allowedByGlobs(p, cfg) || ign.Match(p) {
			continue
		}
		if int64(len(data[i])) > cfg.MaxBytes || looksBinary(data[i]) {
			continue
		}
		findings := detectors.ScanLines(string(data[i]), p)
		for j := range findings {
			findings[j].Context = tag + findings[j].Context
		}
		emit(findings)
		result.FilesScanned++
		if cfg.Progress != nil {
			cfg.Progress()
		}
	}
	return nil
}

// allowedByGlobs returns true if the given path is allowed by the
// include/exclude glob configuration. Include globs are comma-separated
// and, if provided, act as a positive filter. Exclude globs are subtracted
// last. Matching uses forward-slash semantics.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
			out = append(out, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
