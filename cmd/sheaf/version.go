package main

import (
	"fmt"

	"github.com/aretw0/sheaf"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sheaf",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sheaf version %s\n", sheaf.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
