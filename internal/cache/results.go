package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/keyguard/keyguard/internal/types"
)

// ScanResults stores the findings and metadata from the most recent scan.
type ScanResults struct {
	Findings  []types.Finding `json:"findings"`
	Timestamp time.Time       `json:"timestamp"`
	Root      string          `json:"root"`
	Count     int             `json:"count"`
}

func resultsPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "keyguard_last_scan.json")
	}
	return filepath.Join(root, ".keyguard_last_scan.json")
}

// SaveResults persists the last scan's findings next to the scan cache.
// Keys are reduced to their 8-char prefix before hitting disk.
func SaveResults(root string, findings []types.Finding) error {
	redacted := make([]types.Finding, len(findings))
	for i, f := range findings {
		if len(f.Key) > keyPrefixLen {
			f.Key = f.Key[:keyPrefixLen] + "..."
		}
		redacted[i] = f
	}
	results := ScanResults{
		Findings:  redacted,
		Timestamp: time.Now(),
		Root:      root,
		Count:     len(redacted),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0644)
}

// LoadResults loads the last scan results, if any.
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	b, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(b, &results); err != nil {
		return results, err
	}
	return results, nil
}
