// Package detectors holds the provider pattern corpus and the classifier
// that turns raw text spans into typed findings. Everything here is pure:
// the tables are built once at init and never mutated, and Scan performs
// no I/O, which keeps classification trivially parallel and testable.
package detectors
