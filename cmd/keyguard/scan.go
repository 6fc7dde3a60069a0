package keyguard

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/config"
	"github.com/keyguard/keyguard/internal/engine"
	"github.com/keyguard/keyguard/internal/report"
)

var (
	flagPath      string
	flagHistory   int
	flagStartRef  string
	flagBase      string
	flagCompare   string
	flagInclude   string
	flagExclude   string
	flagMaxBytes  int64
	flagGitignore bool
	flagValidate  bool
	flagText      bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan files, git history or branch diffs for API keys",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().IntVar(&flagHistory, "history", 0, "scan last N commits (0=off)")
	cmd.Flags().StringVar(&flagStartRef, "start-ref", "", "ref to start the history walk from (default HEAD)")
	cmd.Flags().StringVar(&flagBase, "base", "", "base branch for diff scanning")
	cmd.Flags().StringVar(&flagCompare, "compare", "", "compare branch for diff scanning")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (default 10MB)")
	cmd.Flags().BoolVar(&flagGitignore, "respect-gitignore", false, "skip paths matched by the root .gitignore")
	cmd.Flags().BoolVar(&flagValidate, "validate", false, "check found keys against provider APIs")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format instead of a table")
}

func runScan(cmd *cobra.Command, _ []string) error {
	abs, _ := filepath.Abs(flagPath)
	if flagCompare != "" && flagBase == "" {
		return fmt.Errorf("--compare requires --base")
	}

	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	cfg := engine.Config{
		Root:             abs,
		IncludeGlobs:     pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:     pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:         pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:          pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		HistoryCommits:   flagHistory,
		StartRef:         flagStartRef,
		BaseBranch:       flagBase,
		CompareBranch:    flagCompare,
		RespectGitignore: pickBool(flagGitignore, lcfg.RespectGitignore, gcfg.RespectGitignore),
		NoCache:          pickBool(flagNoCache, lcfg.NoCache, gcfg.NoCache),
	}

	if !flagJSON {
		switch {
		case cfg.HistoryCommits > 0:
			fmt.Fprintf(os.Stderr, "Scanning last %d commits of %s...\n", cfg.HistoryCommits, abs)
		case cfg.CompareBranch != "":
			fmt.Fprintf(os.Stderr, "Scanning diff %s..%s in %s...\n", cfg.BaseBranch, cfg.CompareBranch, abs)
		default:
			fmt.Fprintf(os.Stderr, "Scanning %s...\n", abs)
		}
		var mu sync.Mutex
		progressed := 0
		cfg.Progress = func() {
			mu.Lock()
			progressed++
			if progressed%10 == 0 {
				fmt.Fprintf(os.Stderr, "\r%d files", progressed)
			}
			mu.Unlock()
		}
	}

	res, err := engine.ScanWithStats(cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if !flagJSON {
		fmt.Fprint(os.Stderr, "\r")
	}

	findings := res.Findings
	if pickBool(flagValidate, lcfg.Validate, gcfg.Validate) {
		findings = validateFindings(findings)
	}

	asTable := pickString("", lcfg.Output, gcfg.Output) != "text" && !flagText
	return renderFindings(findings, report.PrintOptions{
		NoColor:      flagNoColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
	}, asTable)
}
