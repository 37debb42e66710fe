// Package status derives user-facing hints from the reconciled pair
// of order status and raw provider status.
package status

import (
	"strings"

	"ramp-watch/pkg/types"
)

// NextAction tags what the user (or the UI on their behalf) should do
// next.
type NextAction string

const (
	ActionTransactionComplete NextAction = "transaction_complete"
	ActionWaitForProcessing   NextAction = "wait_for_processing"
	ActionCompletePayment     NextAction = "complete_payment"
	ActionContactSupport      NextAction = "contact_support"
	ActionWait                NextAction = "wait"
)

// Hint is derived state, recomputed on every reconciliation tick and
// never persisted.
type Hint struct {
	Message       string
	NextAction    NextAction
	ShowProgress  bool
	CancelAllowed bool
}

// DeriveHint maps (order status, raw provider status) onto a Hint.
// Pure function; first matching row wins.
func DeriveHint(order types.Status, providerRaw string) Hint {
	paid := strings.EqualFold(providerRaw, types.RawStatusPaid)

	switch order {
	case types.StatusCompleted:
		return Hint{
			Message:    "Transfer complete. Your funds have been delivered.",
			NextAction: ActionTransactionComplete,
		}
	case types.StatusProcessing:
		return Hint{
			Message:      "Payment received. Your transfer is being processed.",
			NextAction:   ActionWaitForProcessing,
			ShowProgress: true,
		}
	case types.StatusPending:
		if paid {
			return Hint{
				Message:    "Payment confirmed. Waiting for the transfer to start.",
				NextAction: ActionWaitForProcessing,
			}
		}
		return Hint{
			Message:       "Awaiting your payment. Complete the checkout to continue.",
			NextAction:    ActionCompletePayment,
			CancelAllowed: true,
		}
	case types.StatusFailed:
		return Hint{
			Message:    "The transfer failed. Please contact support.",
			NextAction: ActionContactSupport,
		}
	case types.StatusCancelled:
		return Hint{
			Message:    "This order was cancelled.",
			NextAction: ActionWait,
		}
	}

	return Hint{
		Message:    "Checking status...",
		NextAction: ActionWait,
	}
}
