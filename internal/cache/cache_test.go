package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keyguard/keyguard/internal/types"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(target, []byte("OPENAI_API_KEY=something"), 0644); err != nil {
		t.Fatal(err)
	}

	c := Open(dir)
	if c.IsCached(target) {
		t.Fatalf("fresh cache should miss")
	}
	findings := []types.Finding{{
		Provider:   types.OpenAI,
		Key:        "sk-abcdefghijklmnopqrstuvwxyz",
		Confidence: types.ConfHigh,
		Line:       1,
		Context:    "ctx",
	}}
	c.Update(target, findings)

	if !c.IsCached(target) {
		t.Fatalf("expected cache hit after update")
	}
	got := c.Get(target)
	if len(got) != 1 {
		t.Fatalf("expected 1 cached finding, got %d", len(got))
	}
	if got[0].KeyPrefix != "sk-abcde" {
		t.Fatalf("key not redacted to 8-char prefix: %q", got[0].KeyPrefix)
	}
	if got[0].Confidence != "high" {
		t.Fatalf("confidence = %q, want high", got[0].Confidence)
	}

	// reload from disk
	c2 := Open(dir)
	if !c2.IsCached(target) {
		t.Fatalf("expected cache hit after reload")
	}
}

func TestCacheInvalidatedByContentChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(target, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}
	c := Open(dir)
	c.Update(target, nil)
	if !c.IsCached(target) {
		t.Fatalf("expected cache hit")
	}
	// mutate content; keep mtime plausible but hash must change
	if err := os.WriteFile(target, []byte("two"), 0644); err != nil {
		t.Fatal(err)
	}
	if c.IsCached(target) {
		t.Fatalf("expected cache miss after content change")
	}
}

func TestCacheCorruptFileDegradesToMiss(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".keyguardcache.json")
	if err := os.WriteFile(p, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	c := Open(dir)
	if c.IsCached(filepath.Join(dir, "whatever.txt")) {
		t.Fatalf("corrupt cache must behave as empty")
	}
}

func TestCacheFileShape(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(target, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	c := Open(dir)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	c.Update(target, []types.Finding{{Provider: types.Groq, Key: "gsk_x", Confidence: types.ConfLow}})

	raw, err := os.ReadFile(filepath.Join(dir, ".keyguardcache.json"))
	if err != nil {
		t.Fatal(err)
	}
	var shape struct {
		Version int `json:"version"`
		Files   map[string]struct {
			Hash     string            `json:"hash"`
			Mtime    int64             `json:"mtime"`
			Findings []json.RawMessage `json:"findings"`
			LastScan int64             `json:"last_scan"`
		} `json:"files"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatal(err)
	}
	if shape.Version != 1 {
		t.Fatalf("version = %d, want 1", shape.Version)
	}
	e, ok := shape.Files[target]
	if !ok {
		t.Fatalf("missing file entry")
	}
	if e.Hash == "" || e.Mtime == 0 || e.LastScan != 1700000000 {
		t.Fatalf("incomplete entry: %+v", e)
	}
	if len(e.Findings) != 1 {
		t.Fatalf("expected one serialized finding")
	}
}
