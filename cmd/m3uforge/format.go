package main

import (
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/voyagen/m3uforge/internal/m3u"
)

var formatOutput string

var formatCmd = &cobra.Command{
	Use:   "format <file>",
	Short: "Rewrite a playlist in canonical extended M3U form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := m3u.DeserializeFile(appFs, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), formatOutput, m3u.Serialize(p))
	},
}

func init() {
	formatCmd.Flags().StringVarP(&formatOutput, "output", "o", "", "Write to file instead of stdout")
}

// writeOutput writes content to path through appFs, or to w when path is empty.
func writeOutput(w io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	return afero.WriteFile(appFs, path, []byte(content), 0o644)
}
