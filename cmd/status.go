package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ramp-watch/config"
	"ramp-watch/pkg/client"
	"ramp-watch/pkg/credential"
	"ramp-watch/pkg/handoff"
	"ramp-watch/pkg/poll"
	"ramp-watch/pkg/status"
	"ramp-watch/pkg/types"
)

var (
	statusReference string
	statusOrderID   string
	statusWatch     bool
	statusInterval  int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the settlement status of an onramp order",
	Long: `Check the settlement status of an onramp order. The payment reference
is the preferred identifier; the order id is a fallback used when no
reference was captured. With neither flag, the order recorded by the
last 'ramp-watch onramp' is used.

Examples:
  ramp-watch status --reference pay_123
  ramp-watch status --reference pay_123 --watch
  ramp-watch status --order ord_456 --watch --interval 10`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusReference, "reference", "", "Payment reference (preferred identifier)")
	statusCmd.Flags().StringVar(&statusOrderID, "order", "", "Order id (fallback identifier)")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep checking until a terminal status")
	statusCmd.Flags().IntVar(&statusInterval, "interval", 0, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if statusInterval > 0 {
		cfg.PollInterval = time.Duration(statusInterval) * time.Second
	}

	apiClient := client.New(cfg.BaseURL, cfg.RequestTimeout)
	store, err := credential.NewStore(cfg.SessionFile, apiClient)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reference := statusReference
	orderID := statusOrderID
	if reference == "" && orderID == "" {
		orderID, _ = store.CurrentOrder()
	}
	if reference == "" && orderID == "" {
		printError(fmt.Errorf("no identifier available. Pass --reference or --order, or open an order with 'ramp-watch onramp'"))
		os.Exit(1)
	}

	ctx := context.Background()

	cred, err := store.GetOrCreate(ctx, cfg.WalletAddress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if statusWatch {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}
		watchSettlement(ctx, cfg, store, apiClient, reference, orderID, cred.Token, jsonOutput)
		return
	}

	checkOnce(ctx, cfg, apiClient, reference, orderID, cred.Token, jsonOutput)
}

// checkOnce performs a single reconciliation and prints the result.
func checkOnce(ctx context.Context, cfg *config.Config, apiClient *client.RampClient, reference, orderID, token string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking settlement status..."
		s.Start()
	}

	var (
		order    *types.Order
		provider *types.ProviderStatus
		err      error
	)
	if reference != "" {
		order, provider, err = apiClient.CheckByPaymentReference(ctx, reference, token)
	} else {
		order, err = apiClient.FetchByOrderID(ctx, orderID, token)
	}

	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		var notFound *client.OrderNotFoundError
		if errors.As(err, &notFound) {
			fmt.Printf("\nNo order found for '%s'. See your orders at %s\n\n", orderID, cfg.DashboardURL)
			return
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		raw := ""
		if provider != nil {
			raw = provider.RawStatus
		}
		out := struct {
			Order    *types.Order          `json:"order"`
			Provider *types.ProviderStatus `json:"provider,omitempty"`
			Hint     status.Hint           `json:"hint"`
		}{order, provider, status.DeriveHint(order.Status, raw)}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	raw := ""
	if provider != nil {
		raw = provider.RawStatus
	}
	displaySnapshot(poll.Snapshot{
		Order:     order,
		Provider:  provider,
		Hint:      status.DeriveHint(order.Status, raw),
		CheckedAt: time.Now(),
	})
}

// watchSettlement drives the polling engine until the order reaches a
// terminal state, then runs the receipt handoff: share prompt first,
// redirect countdown after.
func watchSettlement(ctx context.Context, cfg *config.Config, store *credential.Store, apiClient *client.RampClient, reference, orderID, token string, jsonOutput bool) {
	identifier := reference
	if identifier == "" {
		identifier = orderID
	}
	fmt.Printf("\nWatching settlement (%s)\n", color.CyanString(identifier))
	fmt.Printf("Checking every %s. Press Ctrl+C to stop.\n", cfg.PollInterval)

	session, err := newWatchSession(ctx, cfg, store, apiClient, reference, orderID, token)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer session.Stop()

	if err := session.Start(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}

	<-session.Done()

	snap, ok := session.Snapshot()
	if !ok {
		fmt.Println("\nNo status could be retrieved.")
		return
	}

	if snap.Order.Status == types.StatusCompleted {
		runReceiptHandoff(cfg, snap.Order)
	}
}

// newWatchSession builds the polling session, wiring status display
// and the 401 re-authentication path into its callbacks.
func newWatchSession(ctx context.Context, cfg *config.Config, store *credential.Store, apiClient *client.RampClient, reference, orderID, token string) (*poll.Session, error) {
	var (
		session *poll.Session
		err     error
	)

	session, err = poll.New(poll.Config{
		PaymentReference: reference,
		OrderID:          orderID,
		Token:            token,
		Interval:         cfg.PollInterval,
		Checker:          apiClient,
		OnUpdate: func(snap poll.Snapshot) {
			displaySnapshot(snap)
		},
		OnError: func(err error) {
			if errors.Is(err, client.ErrUnauthorized) {
				// The rail rejected the stored token. Drop it and
				// exchange a fresh one; the next tick retries with it.
				if clearErr := store.Clear(); clearErr != nil {
					color.Red("Error: %v", clearErr)
					return
				}
				cred, authErr := store.GetOrCreate(ctx, cfg.WalletAddress)
				if authErr != nil {
					color.Red("Error: %v", authErr)
					return
				}
				session.SetToken(cred.Token)
				color.Yellow("Credential refreshed; retrying on the next check.")
				return
			}
			var notFound *client.OrderNotFoundError
			if errors.As(err, &notFound) {
				color.Yellow("No order found yet. See your orders at %s", cfg.DashboardURL)
				return
			}
			color.Red("Error: %v (will keep checking)", err)
		},
	})
	return session, err
}

func displaySnapshot(snap poll.Snapshot) {
	order := snap.Order

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      SETTLEMENT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Order ID:        %s\n", color.CyanString(order.ID))
	fmt.Printf("  Status:          %s\n", coloredStatus(order.Status))
	if snap.Provider != nil && snap.Provider.RawStatus != "" {
		fmt.Printf("  Payment:         %s\n", coloredRawStatus(snap.Provider.RawStatus))
		if snap.Provider.Method != "" {
			fmt.Printf("  Method:          %s\n", snap.Provider.Method)
		}
	}
	fmt.Printf("  Converting:      %s %s -> %s %s\n",
		order.SourceAmount.String(), order.SourceCurrency,
		order.TargetAmount.String(), order.TargetCurrency)
	if order.TxHash != "" {
		fmt.Printf("  Tx Hash:         %s\n", color.HiBlackString(order.TxHash))
	}
	if order.CompletedAt != nil {
		fmt.Printf("  Completed:       %s\n", order.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("  Checked:         %s\n", snap.CheckedAt.Format("2006-01-02 15:04:05"))

	fmt.Printf("\n  %s\n", snap.Hint.Message)
	if snap.Hint.ShowProgress {
		fmt.Printf("  %s\n", color.YellowString("Processing..."))
	}
	if snap.Hint.CancelAllowed {
		fmt.Printf("  %s\n", color.HiBlackString("This order can still be cancelled from the dashboard."))
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
}

func coloredStatus(st types.Status) string {
	switch st {
	case types.StatusCompleted:
		return color.GreenString(string(st))
	case types.StatusPending, types.StatusProcessing:
		return color.YellowString(string(st))
	case types.StatusFailed:
		return color.RedString(string(st))
	case types.StatusCancelled:
		return color.MagentaString(string(st))
	default:
		return string(st)
	}
}

func coloredRawStatus(raw string) string {
	if strings.EqualFold(raw, types.RawStatusPaid) {
		return color.GreenString(raw)
	}
	return color.YellowString(raw)
}

// runReceiptHandoff offers the shareable receipt, then counts down to
// the dashboard. The countdown is suppressed while the share offer is
// open or pending, and a skip jumps straight to the dashboard.
func runReceiptHandoff(cfg *config.Config, order *types.Order) {
	navigated := make(chan struct{})
	rc := handoff.NewRedirectCoordinator(func() {
		fmt.Printf("\n\nOpening dashboard: %s\n\n", color.CyanString(cfg.DashboardURL))
		close(navigated)
	}, handoff.DefaultTickPeriod)
	defer rc.Stop()

	opened := make(chan struct{})
	gate := handoff.NewShareGate(handoff.GateConfig{
		Countdown: rc,
		Share:     printReceiptShare,
		OnOpen:    func() { close(opened) },
	})
	defer gate.Stop()

	gate.Observe(order.Status)
	<-opened

	fmt.Print("\nShare your receipt? [y]es / [n]o / [s]kip to dashboard: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		if _, err := gate.Share(order); err != nil {
			color.Red("Sharing failed: %v", err)
			gate.Resolve(handoff.ResultDismissed)
		}
	case "s", "skip":
		gate.Resolve(handoff.ResultSkipped)
		rc.Skip()
	default:
		gate.Resolve(handoff.ResultDismissed)
	}

	// Render the countdown until navigation fires.
	for {
		select {
		case <-navigated:
			return
		case <-time.After(200 * time.Millisecond):
			if rc.Running() {
				fmt.Printf("\r  Redirecting to the dashboard in %2ds (Ctrl+C to stay)", rc.Remaining())
			}
		}
	}
}

// printReceiptShare is the manual-copy share strategy: no platform
// share sheet exists in a terminal, so the receipt text is printed for
// the user to copy.
func printReceiptShare(order *types.Order) (handoff.ShareResult, error) {
	fmt.Println("\n" + strings.Repeat("-", 70))
	fmt.Printf("  I just swapped %s %s for %s %s!\n",
		order.SourceAmount.String(), order.SourceCurrency,
		order.TargetAmount.String(), order.TargetCurrency)
	if order.TxHash != "" {
		fmt.Printf("  Proof: %s\n", order.TxHash)
	}
	fmt.Println(strings.Repeat("-", 70))

	return handoff.ResultCopied, nil
}
