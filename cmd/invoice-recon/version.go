// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of invoice-recon",
	Args:  exactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "invoice-recon %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
