// Package engine orchestrates scans across the supported sources: the
// working tree, git history, and branch diffs. It owns file selection
// (globs, ignore files, size and binary filters), the worker pool, and
// result-cache integration, and hands the actual classification to the
// detectors package.
package engine
