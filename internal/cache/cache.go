package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/keyguard/keyguard/internal/types"
)

const Version = 1

// keyPrefixLen bounds how much of a key is persisted. Full keys never hit
// disk.
const keyPrefixLen = 8

// Entry is one cached file record: content hash, mtime, and the redacted
// findings of the last scan.
type Entry struct {
	Hash     string          `json:"hash"`
	Mtime    int64           `json:"mtime"`
	Findings []CachedFinding `json:"findings"`
	LastScan int64           `json:"last_scan"`
}

// CachedFinding is the security-redacted on-disk form of a finding.
type CachedFinding struct {
	Provider   types.Provider `json:"provider"`
	KeyPrefix  string         `json:"key_prefix"`
	Confidence string         `json:"confidence"`
	LineNumber int            `json:"line_number,omitempty"`
	Context    string         `json:"context,omitempty"`
}

// DB is the versioned cache file shape. The version field allows future
// migration of the on-disk format.
type DB struct {
	Version int              `json:"version"`
	Files   map[string]Entry `json:"files"`
}

// Cache memoizes per-file scan results so unchanged files can be skipped
// across invocations. All failure modes degrade to a cache miss; writes are
// best-effort.
type Cache struct {
	mu   sync.Mutex
	path string
	db   DB
	now  func() time.Time
}

func defaultPath(root string) string {
	// Prefer storing under .git to avoid accidental commits.
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "keyguardcache.json")
	}
	return filepath.Join(root, ".keyguardcache.json")
}

// Open loads the cache for a scan root, returning an empty cache when the
// file is missing or corrupt.
func Open(root string) *Cache {
	return OpenFile(defaultPath(root))
}

// OpenFile loads a cache from an explicit path.
func OpenFile(path string) *Cache {
	c := &Cache{path: path, now: time.Now}
	c.db = DB{Version: Version, Files: map[string]Entry{}}
	b, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var db DB
	if err := json.Unmarshal(b, &db); err != nil || db.Files == nil {
		return c
	}
	db.Version = Version
	c.db = db
	return c
}

func fileInfo(path string) (string, int64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	return HashBytes(b), st.ModTime().Unix(), nil
}

// IsCached reports whether path has an entry whose content hash and mtime
// both match the file's current state.
func (c *Cache) IsCached(path string) bool {
	c.mu.Lock()
	e, ok := c.db.Files[path]
	c.mu.Unlock()
	if !ok {
		return false
	}
	hash, mtime, err := fileInfo(path)
	if err != nil {
		return false
	}
	return e.Hash == hash && e.Mtime == mtime
}

// Get returns the cached redacted findings for path, or nil when the entry
// is missing or stale.
func (c *Cache) Get(path string) []CachedFinding {
	if !c.IsCached(path) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Files[path].Findings
}

// Update records findings for path and rewrites the cache file. A failed
// write is silently ignored; the scan simply runs uncached next time.
func (c *Cache) Update(path string, findings []types.Finding) {
	hash, mtime, err := fileInfo(path)
	if err != nil {
		return
	}
	redacted := make([]CachedFinding, 0, len(findings))
	for _, f := range findings {
		prefix := f.Key
		if len(prefix) > keyPrefixLen {
			prefix = prefix[:keyPrefixLen]
		}
		redacted = append(redacted, CachedFinding{
			Provider:   f.Provider,
			KeyPrefix:  prefix,
			Confidence: f.Confidence.String(),
			LineNumber: f.Line,
			Context:    f.Context,
		})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db.Files[path] = Entry{
		Hash:     hash,
		Mtime:    mtime,
		Findings: redacted,
		LastScan: c.now().Unix(),
	}
	c.save()
}

// save is called with mu held.
func (c *Cache) save() {
	b, err := json.Marshal(c.db)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path, b, 0644)
}

// HashBytes returns the content hash used for cache keys, as 16 hex chars.
func HashBytes(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
