// Package main is the entry point for the adventure gRPC server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adventure-api",
	Short: "Adventure API gRPC Server",
	Long:  `Adventure API resolves turn-based encounters: weighted encounter rolls, combat turns, loot and progression.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(smokeCmd)
}
