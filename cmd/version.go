package cmd

import (
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

// set via ldflags at build time
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ilosync",
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("%s", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
