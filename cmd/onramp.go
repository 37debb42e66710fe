package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ramp-watch/config"
	"ramp-watch/pkg/client"
	"ramp-watch/pkg/credential"
	"ramp-watch/pkg/types"
)

var (
	onrampRecipient string
	onrampWallet    string
	onrampNoConfirm bool
	onrampWatch     bool
)

var onrampCmd = &cobra.Command{
	Use:   "onramp <amount> <fiat> to <stable>",
	Short: "Open a fiat-to-stable onramp order",
	Long: `Open an onramp order converting fiat into a stable asset delivered to
an on-chain recipient address, then pay through the returned checkout.

IMPORTANT:
  - You MUST specify --recipient (the address receiving the stable asset)
  - The order settles asynchronously; use --watch or 'ramp-watch status' to track it

Examples:
  ramp-watch onramp 5000 NGN to USDC --recipient 0x1234...abcd
  ramp-watch onramp 5000 NGN to USDC --recipient 0x1234...abcd --watch
  ramp-watch onramp 250 NGN to USDC --recipient 0x1234...abcd --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runOnramp,
}

func init() {
	rootCmd.AddCommand(onrampCmd)

	onrampCmd.Flags().StringVar(&onrampRecipient, "recipient", "", "Recipient address (REQUIRED - where the stable asset is delivered)")
	onrampCmd.Flags().StringVar(&onrampWallet, "wallet", "", "Wallet address for credential exchange (defaults to the configured one)")
	onrampCmd.Flags().BoolVarP(&onrampNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	onrampCmd.Flags().BoolVarP(&onrampWatch, "watch", "w", false, "Track settlement after opening the order")
}

// onrampPattern matches "<amount> <fiat> to <stable>", e.g.
// "5000 NGN to USDC".
var onrampPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// parseOnrampCommand parses a natural language onramp command.
func parseOnrampCommand(command string) (*types.OnrampRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "ONRAMP ")

	matches := onrampPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid onramp command format. Expected: 'onramp <amount> <fiat> to <stable>' (e.g., 'onramp 5000 NGN to USDC')")
	}

	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	return &types.OnrampRequest{
		Amount:         amount,
		SourceCurrency: matches[2],
		TargetCurrency: matches[3],
	}, nil
}

func runOnramp(cmd *cobra.Command, args []string) {
	req, err := parseOnrampCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	req.RecipientAddress = onrampRecipient

	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := req.Validate(); err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.New(cfg.BaseURL, cfg.RequestTimeout)
	store, err := credential.NewStore(cfg.SessionFile, apiClient)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	walletAddress := onrampWallet
	if walletAddress == "" {
		walletAddress = cfg.WalletAddress
	}
	cred, err := store.GetOrCreate(ctx, walletAddress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !onrampNoConfirm && !jsonOutput {
		fmt.Printf("\n  Convert %s %s into %s, delivered to %s\n",
			req.Amount.String(), req.SourceCurrency, req.TargetCurrency, color.CyanString(req.RecipientAddress))
		fmt.Print("\nProceed? (y/N): ")

		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Cancelled.")
			return
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Opening onramp order..."
		s.Start()
	}

	receipt, err := apiClient.CreateOnramp(ctx, req, cred.Token)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Remember the order so a bare 'ramp-watch status' can find it.
	if err := store.SetCurrentOrder(receipt.Order.ID, receipt.Order.Status); err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(data))
	} else {
		displayReceipt(receipt)
	}

	if onrampWatch {
		watchSettlement(ctx, cfg, store, apiClient, receipt.PaymentReference, receipt.Order.ID, cred.Token, jsonOutput)
	}
}

func displayReceipt(receipt *types.OnrampReceipt) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        ORDER OPENED")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Order ID:        %s\n", color.CyanString(receipt.Order.ID))
	fmt.Printf("  Reference:       %s\n", color.CyanString(receipt.PaymentReference))
	fmt.Printf("  Converting:      %s %s -> %s %s\n",
		receipt.Order.SourceAmount.String(), receipt.Order.SourceCurrency,
		receipt.Order.TargetAmount.String(), receipt.Order.TargetCurrency)
	fmt.Printf("  Recipient:       %s\n", receipt.Order.RecipientAddress)
	fmt.Printf("\n  Pay here:        %s\n", color.YellowString(receipt.CheckoutURL))
	fmt.Printf("\n  Track with:      ramp-watch status --reference %s --watch\n", receipt.PaymentReference)

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
