package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ramp-watch",
	Short: "A CLI for fiat-to-stable onramp orders and settlement tracking",
	Long: `ramp-watch converts fiat into a stable asset through a third-party
payment rail and tracks the asynchronous settlement until it reaches a
terminal state.

Examples:
  ramp-watch auth 0xYourWalletAddress
  ramp-watch onramp 5000 NGN to USDC --recipient 0xYourWalletAddress
  ramp-watch status --reference pay_123 --watch
  ramp-watch status --order ord_456`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
