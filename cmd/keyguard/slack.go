package keyguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/chat"
	"github.com/keyguard/keyguard/internal/config"
	"github.com/keyguard/keyguard/internal/report"
)

var (
	flagSlackToken    string
	flagSlackChannel  string
	flagSlackDays     int
	flagSlackMax      int
	flagSlackValidate bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "slack",
		Short: "Scan a Slack channel's history for API keys",
		RunE:  runSlack,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagSlackToken, "token", "", "Slack bot token (default: config file or SLACK_API_TOKEN)")
	cmd.Flags().StringVarP(&flagSlackChannel, "channel", "c", "", "channel name or ID to scan (required)")
	cmd.Flags().IntVar(&flagSlackDays, "days-back", 0, "how many days of history to scan (default 30)")
	cmd.Flags().IntVar(&flagSlackMax, "max-messages", 0, "maximum messages to fetch (default 1000)")
	cmd.Flags().BoolVar(&flagSlackValidate, "validate", false, "check found keys against provider APIs")
	_ = cmd.MarkFlagRequired("channel")
}

func runSlack(cmd *cobra.Command, _ []string) error {
	cwd, _ := filepath.Abs(".")
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(cwd); err == nil {
		lcfg = c
	}
	lsc, gsc := lcfg.GetSlackConfig(), gcfg.GetSlackConfig()

	token := flagSlackToken
	if token == "" {
		token = lsc.GetToken()
	}
	if token == "" {
		token = gsc.GetToken()
	}
	if token == "" {
		return errors.New("no Slack token: use --token, the config file, or SLACK_API_TOKEN")
	}

	days := flagSlackDays
	if days == 0 {
		days = lsc.GetDaysBack()
	}
	if days == 0 {
		days = gsc.GetDaysBack()
	}
	max := flagSlackMax
	if max == 0 {
		max = lsc.GetMaxMessages()
	}
	if max == 0 {
		max = gsc.GetMaxMessages()
	}

	scanner, err := chat.NewScanner(chat.Config{
		Token:       token,
		DaysBack:    days,
		MaxMessages: max,
	})
	if err != nil {
		return err
	}

	if !flagJSON {
		fmt.Fprintf(os.Stderr, "Scanning Slack channel %s...\n", flagSlackChannel)
	}
	findings, err := scanner.ScanChannel(context.Background(), flagSlackChannel)
	if err != nil {
		return fmt.Errorf("slack scan error: %w", err)
	}

	if flagSlackValidate {
		findings = validateFindings(findings)
	}
	return renderFindings(findings, report.PrintOptions{NoColor: flagNoColor}, true)
}
