package core

import (
	"github.com/keyguard/keyguard/internal/detectors"
	"github.com/keyguard/keyguard/internal/engine"
	"github.com/keyguard/keyguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Config = engine.Config
type Result = engine.Result
type Finding = types.Finding
type Provider = types.Provider

// Scan is the stable entrypoint for other programs.
func Scan(cfg Config) ([]Finding, error) {
	return engine.Scan(cfg)
}

// ScanWithStats runs a scan and also reports timing and file counts.
func ScanWithStats(cfg Config) (Result, error) {
	return engine.ScanWithStats(cfg)
}

// ScanText classifies a text blob without touching the filesystem.
// source labels the findings' Path.
func ScanText(text, source string) []Finding {
	return detectors.ScanLines(text, source)
}

// Providers returns the recognized provider identifiers in detection order.
// This is exposed for convenience to avoid importing internals directly.
func Providers() []Provider { return detectors.Providers() }
