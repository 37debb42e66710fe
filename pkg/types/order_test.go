package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"processing", StatusProcessing},
		{"completed", StatusCompleted},
		{"failed", StatusFailed},
		{"cancelled", StatusCancelled},
		{"COMPLETED", StatusCompleted},
		{"  Processing ", StatusProcessing},
		{"", StatusPending},
		{"settled", StatusPending},
		{"banana", StatusPending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.raw), "raw %q", tt.raw)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}

func TestOnrampRequestValidate(t *testing.T) {
	valid := OnrampRequest{
		Amount:           decimal.NewFromInt(5000),
		SourceCurrency:   "NGN",
		TargetCurrency:   "USDC",
		RecipientAddress: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
	}
	assert.NoError(t, valid.Validate())

	zero := valid
	zero.Amount = decimal.Zero
	assert.Error(t, zero.Validate())

	negative := valid
	negative.Amount = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())

	noRecipient := valid
	noRecipient.RecipientAddress = ""
	assert.Error(t, noRecipient.Validate())

	badRecipient := valid
	badRecipient.RecipientAddress = "not-an-address"
	assert.Error(t, badRecipient.Validate())

	noSource := valid
	noSource.SourceCurrency = ""
	assert.Error(t, noSource.Validate())
}
