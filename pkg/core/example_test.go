package core_test

import (
	"fmt"
	"os"

	"github.com/keyguard/keyguard/pkg/core"
)

// ExampleScan demonstrates how to perform a simple scan of a directory.
func ExampleScan() {
	// 1. Configure the scan
	cfg := core.Config{
		Root:         ".",         // Scan the current directory
		Threads:      4,           // Number of concurrent workers
		IncludeGlobs: "*.py",      // Only scan Python files (optional)
		MaxBytes:     1024 * 1024, // Skip files larger than 1MB
	}

	// 2. Run the scan
	findings, err := core.Scan(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}

	// 3. Process findings
	if len(findings) == 0 {
		fmt.Println("No API keys found.")
	} else {
		fmt.Printf("Found %d keys.\n", len(findings))
		// Helper to write JSON output to stdout
		_ = core.MarshalFindings(os.Stdout, findings)
	}
}

// ExampleScanWithStats shows how to run a scan and retrieve execution statistics.
func ExampleScanWithStats() {
	cfg := core.Config{
		Root:           ".",
		HistoryCommits: 50, // Walk the last 50 commits instead of the working tree
	}

	// Run scan and get detailed result object
	result, err := core.ScanWithStats(cfg)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Scanned %d files in %s\n", result.FilesScanned, result.Duration)
	fmt.Printf("Found %d keys\n", len(result.Findings))
}
