package keyguard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/ci"
	"github.com/keyguard/keyguard/internal/report"
	"github.com/keyguard/keyguard/internal/types"
)

var (
	flagCIValidate bool
	flagCIRepo     string
	flagCIWorkflow string
	flagCIToken    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "ci [file|dir]",
		Short: "Scan CI pipeline manifests for API keys",
		Long:  "Scans GitHub Actions workflows and GitLab CI configuration. With a file argument only that manifest is parsed; with a directory (default .) every workflow under .github/workflows plus .gitlab-ci.yml is scanned. With --repo the workflows are fetched from the GitHub API instead of the local disk.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCI,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().BoolVar(&flagCIValidate, "validate", false, "check found keys against provider APIs")
	cmd.Flags().StringVar(&flagCIRepo, "repo", "", "scan a remote GitHub repository (owner/name) instead of local files")
	cmd.Flags().StringVar(&flagCIWorkflow, "workflow", "", "with --repo, fetch only this workflow file")
	cmd.Flags().StringVar(&flagCIToken, "token", "", "GitHub API token for private repositories")
}

func runCI(cmd *cobra.Command, args []string) error {
	var findings []types.Finding

	switch {
	case flagCIRepo != "":
		if len(args) > 0 {
			return fmt.Errorf("--repo and a local path are mutually exclusive")
		}
		scanner := ci.NewRemoteScanner(flagCIToken)
		fs, err := scanner.ScanRepo(context.Background(), flagCIRepo, flagCIWorkflow)
		if err != nil {
			return err
		}
		findings = fs
	default:
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		abs, _ := filepath.Abs(target)

		st, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", target, err)
		}

		if st.IsDir() {
			findings = ci.ScanWorkflowDir(abs)
		} else {
			findings, err = ci.ScanFile(abs)
			if err != nil {
				return fmt.Errorf("parse error: %w", err)
			}
		}
	}

	if flagCIValidate {
		findings = validateFindings(findings)
	}
	return renderFindings(findings, report.PrintOptions{NoColor: flagNoColor}, !flagText)
}
