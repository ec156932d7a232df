package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/voyagen/m3uforge/internal/fetcher"
	"github.com/voyagen/m3uforge/internal/m3u"
)

var (
	importOutput    string
	importUserAgent string
	importTimeout   time.Duration
)

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Download a remote playlist and print it in canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := fetcher.FetchPlaylist(cmd.Context(), args[0], importUserAgent, importTimeout)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), importOutput, m3u.Serialize(p))
	},
}

func init() {
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Write to file instead of stdout")
	importCmd.Flags().StringVar(&importUserAgent, "user-agent", "m3uforge/1.0", "User-Agent header for the request")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 30*time.Second, "Request timeout")
}
