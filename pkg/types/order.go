package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the five-value lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus normalizes a raw status string into a Status. Unknown or
// empty values map to StatusPending so callers never see an
// out-of-vocabulary status.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusProcessing:
		return StatusProcessing
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Terminal reports whether no further status changes are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Default currencies substituted when the rail omits them.
const (
	DefaultSourceCurrency = "NGN"
	DefaultTargetCurrency = "USDC"
)

// Order represents one swap/settlement transaction as reported by the
// payment rail. Orders are replaced wholesale on every successful
// reconciliation; nothing mutates them field by field.
type Order struct {
	ID               string          `json:"id"`
	Status           Status          `json:"status"`
	TransferType     string          `json:"transferType,omitempty"`
	SourceAmount     decimal.Decimal `json:"sourceAmount"`
	SourceCurrency   string          `json:"sourceCurrency"`
	TargetAmount     decimal.Decimal `json:"targetAmount"`
	TargetCurrency   string          `json:"targetCurrency"`
	RecipientAddress string          `json:"recipientAddress,omitempty"`
	TxHash           string          `json:"txHash,omitempty"`
	CreatedAt        *time.Time      `json:"createdAt,omitempty"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
	Note             string          `json:"note,omitempty"`
}

// RawStatusPaid is the provider's vocabulary for a settled payment.
const RawStatusPaid = "PAID"

// ProviderStatus is the external payment rail's view of the payment
// leg. It is derived strictly from the most recent reconciliation
// response and has no lifecycle of its own.
type ProviderStatus struct {
	RawStatus  string          `json:"rawStatus"`
	Paid       bool            `json:"paid"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
	Method     string          `json:"method,omitempty"`
}
