package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build via
// -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the threadflow version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("threadflow %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
