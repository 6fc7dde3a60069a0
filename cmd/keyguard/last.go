package keyguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/cache"
	"github.com/keyguard/keyguard/internal/report"
)

var flagLastPath string

func init() {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the findings from the most recent scan",
		RunE:  runLast,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagLastPath, "path", "p", ".", "scan root whose results to show")
}

func runLast(cmd *cobra.Command, _ []string) error {
	abs, _ := filepath.Abs(flagLastPath)
	results, err := cache.LoadResults(abs)
	if err != nil {
		return fmt.Errorf("no saved results for %s (run a scan first): %w", abs, err)
	}
	if !flagJSON {
		fmt.Fprintf(os.Stderr, "Last scan of %s at %s\n", results.Root, results.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return renderFindings(results.Findings, report.PrintOptions{NoColor: flagNoColor}, true)
}
