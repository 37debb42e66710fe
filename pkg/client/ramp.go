package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ramp-watch/pkg/logger"
	"ramp-watch/pkg/types"
)

// RampClient talks to the payment rail's REST API: credential
// exchange, onramp creation, and the two reconciliation paths.
type RampClient struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// Option configures a RampClient.
type Option func(*RampClient)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log logger.Logger) Option {
	return func(c *RampClient) { c.log = log }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *RampClient) { c.http = h }
}

// New creates a RampClient for the given base URL.
func New(baseURL string, timeout time.Duration, opts ...Option) *RampClient {
	c := &RampClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCredential trades a wallet address for a bearer token.
func (c *RampClient) ExchangeCredential(ctx context.Context, walletAddress string) (string, error) {
	body := map[string]string{"walletAddress": walletAddress}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth", "", body, &resp); err != nil {
		return "", fmt.Errorf("credential exchange failed: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("credential exchange returned an empty token")
	}

	return resp.Token, nil
}

// CheckByPaymentReference performs the authoritative reconciliation
// call: the secure status endpoint keyed by payment reference. The
// response's nested order/payment substructures are normalized into a
// fully populated Order and ProviderStatus.
func (c *RampClient) CheckByPaymentReference(ctx context.Context, reference, token string) (*types.Order, *types.ProviderStatus, error) {
	body := map[string]string{"paymentReference": reference}

	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payment/status", token, body, &resp); err != nil {
		return nil, nil, err
	}

	order, provider := normalizeStatusResponse(&resp)
	c.log.Debug("status check complete", map[string]interface{}{
		"reference":   reference,
		"orderStatus": string(order.Status),
		"rawStatus":   provider.RawStatus,
	})

	return order, provider, nil
}

// FetchByOrderID is the fallback reconciliation path, used only when
// no payment reference was captured. It returns the order as reported,
// without provider-status enrichment.
func (c *RampClient) FetchByOrderID(ctx context.Context, orderID, token string) (*types.Order, error) {
	var resp orderPayload
	path := "/orders/" + url.PathEscape(orderID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		var sce *StatusCheckError
		if errors.As(err, &sce) && sce.StatusCode == http.StatusNotFound {
			return nil, &OrderNotFoundError{OrderID: orderID}
		}
		return nil, err
	}

	return normalizeOrder(&resp), nil
}

// CreateOnramp opens a new fiat-to-stable order and returns the
// checkout descriptor the user pays through.
func (c *RampClient) CreateOnramp(ctx context.Context, req *types.OnrampRequest, token string) (*types.OnrampReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid onramp request: %w", err)
	}

	var resp onrampResponse
	if err := c.doJSON(ctx, http.MethodPost, "/onramp", token, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create onramp order: %w", err)
	}

	receipt := &types.OnrampReceipt{
		Order:            *normalizeOrder(&resp.Order),
		PaymentReference: resp.PaymentReference,
		CheckoutURL:      resp.CheckoutURL,
	}

	c.log.Info("onramp order created", map[string]interface{}{
		"orderId":   receipt.Order.ID,
		"reference": receipt.PaymentReference,
	})

	return receipt, nil
}

// doJSON performs one request/response cycle and converts every
// failure into the error taxonomy before returning. Raw transport
// errors never escape this method.
func (c *RampClient) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &StatusCheckError{Kind: Permanent, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &StatusCheckError{Kind: Permanent, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network hiccups and timeouts self-resolve; skip the tick.
		return &StatusCheckError{Kind: Transient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classify(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &StatusCheckError{Kind: Permanent, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return nil
}

// classify maps a non-2xx response onto the error taxonomy, pulling
// the rail's own message out of the body when one is present.
func (c *RampClient) classify(resp *http.Response) error {
	msg := extractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The record may simply not exist yet.
		return &StatusCheckError{Kind: Transient, StatusCode: resp.StatusCode, Err: fmt.Errorf("record not found: %s", msg)}
	case resp.StatusCode == http.StatusUnauthorized:
		return &StatusCheckError{Kind: Permanent, StatusCode: resp.StatusCode, Err: ErrUnauthorized}
	default:
		return &StatusCheckError{Kind: Permanent, StatusCode: resp.StatusCode, Err: fmt.Errorf("API error: %s", msg)}
	}
}

// extractErrorMessage digs a human-readable message out of an error
// body, falling back to the raw body text.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}

	var parsed map[string]interface{}
	if json.Unmarshal(data, &parsed) == nil {
		if message, ok := parsed["message"].(string); ok && message != "" {
			return message
		}
		if errs, ok := parsed["errors"]; ok {
			return fmt.Sprintf("%v", errs)
		}
	}

	return strings.TrimSpace(string(data))
}
