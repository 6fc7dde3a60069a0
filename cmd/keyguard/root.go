package keyguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/log"
)

var (
	flagJSON    bool
	flagThreads int
	flagFailOn  string
	flagNoColor bool
	flagNoCache bool
	flagVerbose bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the Keyguard CLI.
var rootCmd = &cobra.Command{
	Use:           "keyguard",
	Short:         "Find AI service API keys before they leak",
	Long:          "Keyguard scans your working tree, git history, branch diffs, CI manifests and Slack channels for AI provider API keys, and can check whether found keys are still live.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log.SetVerbose(flagVerbose)
	},
}

// Execute runs the Keyguard CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "medium", "fail on low|medium|high|never")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
