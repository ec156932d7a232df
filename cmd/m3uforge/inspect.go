package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voyagen/m3uforge/internal/m3u"
)

var inspectSummary bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the parsed playlist as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := m3u.DeserializeFile(appFs, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if inspectSummary {
			tvg := "-"
			if p.URLTvg != nil {
				tvg = *p.URLTvg
			}
			fmt.Fprintf(out, "url-tvg: %s\ncache: %d\nrefresh: %d\nentries: %d\n", tvg, p.Cache, p.Refresh, len(p.Entries))
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectSummary, "summary", "s", false, "Print header fields and entry count only")
}
