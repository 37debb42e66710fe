package client

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ramp-watch/pkg/types"
)

// Wire shapes as the rail reports them. Amounts arrive as JSON numbers
// or strings; decimal.Decimal accepts both.

type orderPayload struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	TransferType     string              `json:"transferType"`
	SourceAmount     decimal.NullDecimal `json:"sourceAmount"`
	SourceCurrency   string              `json:"sourceCurrency"`
	TargetAmount     decimal.NullDecimal `json:"targetAmount"`
	TargetCurrency   string              `json:"targetCurrency"`
	RecipientAddress string              `json:"recipientAddress"`
	TxHash           string              `json:"txHash"`
	CreatedAt        *time.Time          `json:"createdAt"`
	CompletedAt      *time.Time          `json:"completedAt"`
	Note             string              `json:"note"`
}

type paymentPayload struct {
	PaidAmount decimal.NullDecimal `json:"paidAmount"`
	PaidAt     *time.Time          `json:"paidAt"`
	Method     string              `json:"method"`
}

type statusResponse struct {
	OrderStatus   string         `json:"orderStatus"`
	PaymentStatus string         `json:"paymentStatus"`
	OrderInfo     orderPayload   `json:"orderInfo"`
	PaymentInfo   paymentPayload `json:"paymentInfo"`
}

type onrampResponse struct {
	Order            orderPayload `json:"order"`
	PaymentReference string       `json:"paymentReference"`
	CheckoutURL      string       `json:"checkoutUrl"`
}

// normalizeOrder converts a wire order into the domain Order,
// substituting defaults for absent optional fields. All default
// substitution lives here so every caller sees a fully populated
// Order.
func normalizeOrder(p *orderPayload) *types.Order {
	order := &types.Order{
		ID:               p.ID,
		Status:           types.ParseStatus(p.Status),
		TransferType:     p.TransferType,
		SourceCurrency:   p.SourceCurrency,
		TargetCurrency:   p.TargetCurrency,
		RecipientAddress: p.RecipientAddress,
		TxHash:           p.TxHash,
		CreatedAt:        p.CreatedAt,
		CompletedAt:      p.CompletedAt,
		Note:             p.Note,
	}

	if p.SourceAmount.Valid {
		order.SourceAmount = p.SourceAmount.Decimal
	}
	if p.TargetAmount.Valid {
		order.TargetAmount = p.TargetAmount.Decimal
	}
	if order.SourceCurrency == "" {
		order.SourceCurrency = types.DefaultSourceCurrency
	}
	if order.TargetCurrency == "" {
		order.TargetCurrency = types.DefaultTargetCurrency
	}

	return order
}

// normalizeStatusResponse flattens the nested secure-status response
// into the (Order, ProviderStatus) pair. The top-level orderStatus
// wins over the nested order's own status field when both are present.
func normalizeStatusResponse(resp *statusResponse) (*types.Order, *types.ProviderStatus) {
	order := normalizeOrder(&resp.OrderInfo)
	if resp.OrderStatus != "" {
		order.Status = types.ParseStatus(resp.OrderStatus)
	}

	provider := &types.ProviderStatus{
		RawStatus: resp.PaymentStatus,
		Paid:      strings.EqualFold(resp.PaymentStatus, types.RawStatusPaid),
		PaidAt:    resp.PaymentInfo.PaidAt,
		Method:    resp.PaymentInfo.Method,
	}
	if resp.PaymentInfo.PaidAmount.Valid {
		provider.PaidAmount = resp.PaymentInfo.PaidAmount.Decimal
	}

	return order, provider
}
