package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/protocol"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cribbage",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cribbage version %s (protocol %s)\n", version, protocol.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
