// Package report renders findings for terminal consumption. Keys are
// always masked on output; the full key only ever lives in memory.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/keyguard/keyguard/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
}

// PrintText writes one line per finding plus a summary footer.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No API keys found ✅")
	} else {
		maxProv := 8
		for _, f := range findings {
			if l := len(f.Provider); l > maxProv {
				maxProv = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			conf := f.Confidence.String()
			if !opts.NoColor {
				conf = colorConfidence(f.Confidence)
			}
			fmt.Fprintf(w, "%-6s %-*s %s  %s%s\n",
				conf, maxProv, f.Provider, location(f), maskValue(f.Key), validSuffix(f))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable writes findings as a bordered table plus a summary footer.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No API keys found ✅")
		printFooter(w, findings, opts)
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("PROVIDER", "CONFIDENCE", "KEY", "LOCATION", "STATUS")
	for _, f := range findings {
		status := ""
		if f.Valid != nil {
			if *f.Valid {
				status = "valid"
			} else {
				status = "not valid"
			}
		}
		_ = table.Append(string(f.Provider), f.Confidence.String(), maskValue(f.Key), location(f), status)
	}
	_ = table.Render()
	printFooter(w, findings, opts)
}

func sortFindings(findings []types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path == findings[j].Path {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Path < findings[j].Path
	})
}

func location(f types.Finding) string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return f.Path
}

func validSuffix(f types.Finding) string {
	if f.Valid == nil {
		return ""
	}
	if *f.Valid {
		return "  [VALID]"
	}
	return "  [not valid]"
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	high, med, low := 0, 0, 0
	for _, f := range findings {
		switch f.Confidence {
		case types.ConfHigh:
			high++
		case types.ConfMed:
			med++
		default:
			low++
		}
	}
	if opts.Duration > 0 || opts.FilesScanned > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n", len(findings), high, med, low)
		if opts.Duration > 0 {
			fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
		}
		if opts.FilesScanned > 0 {
			fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
		}
	}
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func colorConfidence(c types.Confidence) string {
	switch c {
	case types.ConfHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.ConfMed:
		return "\x1b[33mmedium\x1b[0m" // yellow
	default:
		return "\x1b[36mlow\x1b[0m" // cyan
	}
}
