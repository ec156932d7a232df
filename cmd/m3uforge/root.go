package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is the filesystem used by the file-based commands.
var appFs = afero.NewOsFs()

var rootCmd = &cobra.Command{
	Use:           "m3uforge",
	Short:         "Parse, edit and serve extended M3U playlists",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, formatCmd, inspectCmd, importCmd)
}
