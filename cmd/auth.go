package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ramp-watch/config"
	"ramp-watch/pkg/client"
	"ramp-watch/pkg/credential"
)

var clearCredential bool

var authCmd = &cobra.Command{
	Use:   "auth [wallet-address]",
	Short: "Resolve or create the session credential",
	Long: `Resolve the bearer credential used for authenticated calls to the
payment rail. A previously persisted token is reused; otherwise the
given wallet address is exchanged for a new one and persisted.

Examples:
  ramp-watch auth 0x1234...abcd
  ramp-watch auth --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)

	authCmd.Flags().BoolVar(&clearCredential, "clear", false, "Drop the persisted credential")
}

func runAuth(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.New(cfg.BaseURL, cfg.RequestTimeout)
	store, err := credential.NewStore(cfg.SessionFile, apiClient)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if clearCredential {
		if err := store.Clear(); err != nil {
			printError(err)
			os.Exit(1)
		}
		printSuccess("Credential cleared.")
		return
	}

	walletAddress := cfg.WalletAddress
	if len(args) > 0 {
		walletAddress = args[0]
	}

	cred, err := store.GetOrCreate(context.Background(), walletAddress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	source := "exchanged for wallet " + cred.WalletAddress
	if cred.Reused {
		source = "reused from " + store.FilePath()
	}
	fmt.Printf("\n  Credential: %s\n  Source:     %s\n\n", color.CyanString(truncateToken(cred.Token)), source)
}

func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:8] + "..." + token[len(token)-4:]
}
