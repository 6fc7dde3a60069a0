package report

import (
	"strings"

	"github.com/keyguard/keyguard/internal/types"
)

// ShouldFail reports whether any finding meets the fail-on confidence
// tier. Unrecognized tiers behave like "medium".
func ShouldFail(findings []types.Finding, failOn string) bool {
	var min types.Confidence
	switch strings.ToLower(failOn) {
	case "low":
		min = types.ConfLow
	case "high":
		min = types.ConfHigh
	case "never", "off":
		return false
	default:
		min = types.ConfMed
	}
	for _, f := range findings {
		if f.Confidence >= min {
			return true
		}
	}
	return false
}
