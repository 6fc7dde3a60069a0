package keyguard

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/keyguard/keyguard/internal/report"
	"github.com/keyguard/keyguard/internal/types"
	"github.com/keyguard/keyguard/internal/validate"
	"github.com/keyguard/keyguard/pkg/core"
)

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// validateFindings probes every medium-or-better finding against its
// provider API, with a textual progress ticker on stderr.
func validateFindings(findings []types.Finding) []types.Finding {
	if len(findings) == 0 {
		return findings
	}
	if !flagJSON {
		fmt.Fprintf(os.Stderr, "Validating %d findings...\n", len(findings))
	}
	var mu sync.Mutex
	done := 0
	progress := func() {
		mu.Lock()
		done++
		if !flagJSON {
			fmt.Fprintf(os.Stderr, "\r[%d/%d]", done, len(findings))
		}
		mu.Unlock()
	}
	out := validate.New().ValidateFindings(context.Background(), findings, progress)
	if !flagJSON {
		fmt.Fprintln(os.Stderr)
	}
	return out
}

// renderFindings prints findings in the selected format and exits with
// status 1 when the fail-on threshold is met.
func renderFindings(findings []types.Finding, opts report.PrintOptions, asTable bool) error {
	if flagJSON {
		if err := core.MarshalFindings(os.Stdout, findings); err != nil {
			return err
		}
	} else if asTable {
		report.PrintTable(os.Stdout, findings, opts)
	} else {
		report.PrintText(os.Stdout, findings, opts)
	}
	if report.ShouldFail(findings, flagFailOn) {
		os.Exit(1)
	}
	return nil
}
