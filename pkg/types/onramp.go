package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OnrampRequest is a user's request to convert fiat into a stable
// asset delivered to an on-chain address.
type OnrampRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	SourceCurrency   string          `json:"sourceCurrency"`
	TargetCurrency   string          `json:"targetCurrency"`
	RecipientAddress string          `json:"recipientAddress"`
}

// Validate checks that the request is complete enough to send.
func (r *OnrampRequest) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than 0")
	}
	if r.SourceCurrency == "" {
		return fmt.Errorf("source currency is required")
	}
	if r.TargetCurrency == "" {
		return fmt.Errorf("target currency is required")
	}
	if r.RecipientAddress == "" {
		return fmt.Errorf("recipient address is required")
	}
	if !common.IsHexAddress(r.RecipientAddress) {
		return fmt.Errorf("recipient address '%s' is not a valid hex address", r.RecipientAddress)
	}
	return nil
}

// OnrampReceipt is the rail's answer to a new onramp order: the order
// record plus the checkout descriptor the user pays through. The
// payment reference is the preferred identifier for settlement
// tracking.
type OnrampReceipt struct {
	Order            Order  `json:"order"`
	PaymentReference string `json:"paymentReference"`
	CheckoutURL      string `json:"checkoutUrl"`
}
