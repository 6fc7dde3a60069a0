package report

import (
	"testing"

	"github.com/keyguard/keyguard/internal/types"
)

func TestShouldFail(t *testing.T) {
	low := []types.Finding{{Confidence: types.ConfLow}}
	med := []types.Finding{{Confidence: types.ConfMed}}
	high := []types.Finding{{Confidence: types.ConfHigh}}

	cases := []struct {
		findings []types.Finding
		failOn   string
		want     bool
	}{
		{nil, "medium", false},
		{low, "medium", false},
		{med, "medium", true},
		{high, "medium", true},
		{low, "low", true},
		{med, "high", false},
		{high, "high", true},
		{high, "never", false},
		{med, "bogus", true}, // unrecognized tier defaults to medium
	}
	for _, tc := range cases {
		if got := ShouldFail(tc.findings, tc.failOn); got != tc.want {
			t.Errorf("ShouldFail(%v, %q) = %v, want %v", tc.findings, tc.failOn, got, tc.want)
		}
	}
}
