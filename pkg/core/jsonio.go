package core

import (
	"encoding/json"
	"io"
)

// MarshalFindings writes findings as two-space indented JSON, the format
// the CLI emits under --json. A nil slice is written as [] so consumers
// never see null.
func MarshalFindings(w io.Writer, findings []Finding) error {
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// UnmarshalFindings reads findings back from MarshalFindings output, or
// from any JSON array of finding objects.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	var fs []Finding
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, err
	}
	return fs, nil
}
