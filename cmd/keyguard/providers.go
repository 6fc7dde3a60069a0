package keyguard

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyguard/keyguard/internal/detectors"
)

func init() {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List recognized AI providers and their key patterns",
		RunE:  runProviders,
	}
	rootCmd.AddCommand(cmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	providers := detectors.Providers()
	if flagJSON {
		type entry struct {
			Provider string `json:"provider"`
			Pattern  string `json:"pattern"`
		}
		out := make([]entry, 0, len(providers))
		for _, p := range providers {
			out = append(out, entry{Provider: string(p), Pattern: detectors.Pattern(p).String()})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, p := range providers {
		fmt.Printf("%-12s %s\n", p, detectors.Pattern(p).String())
	}
	return nil
}
