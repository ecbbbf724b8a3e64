package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/pkg/util"
)

const (
	bkashStatusOK      = "0000"
	bkashSandboxURL    = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"
	bkashLiveURL       = "https://tokenized.pay.bka.sh/v1.2.0-beta"
	bkashDemoUsername  = "demo"
	bkashMockIDPattern = "MockPay_%s_%s"
)

// BkashClient drives the tokenized-checkout provider for one ISP company.
// Merchant credentials live per company so each tenant settles to its own
// wallet. Username "demo" switches every call into simulation mode.
type BkashClient struct {
	creds   domain.GatewayBCredentials
	baseURL string
	// mockBase builds the local mock checkout URL in simulation mode.
	mockBase string
	http     *http.Client
	logger   *zap.Logger
	now      func() time.Time
}

// NewBkashClient creates a tokenized-checkout client from company credentials.
func NewBkashClient(creds domain.GatewayBCredentials, mockBase string, timeout time.Duration, logger *zap.Logger) *BkashClient {
	baseURL := bkashLiveURL
	if creds.Sandbox {
		baseURL = bkashSandboxURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BkashClient{
		creds:    creds,
		baseURL:  baseURL,
		mockBase: mockBase,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock, used by tests for deterministic mock ids.
func (c *BkashClient) WithClock(now func() time.Time) *BkashClient {
	c.now = now
	return c
}

// WithBaseURL points the client at an alternate provider endpoint.
func (c *BkashClient) WithBaseURL(baseURL string) *BkashClient {
	c.baseURL = baseURL
	return c
}

// Simulated reports whether this client fabricates sessions locally.
func (c *BkashClient) Simulated() bool {
	return c.creds.Username == bkashDemoUsername
}

// GetToken performs the app-key/app-secret grant. Simulation mode returns a
// fixed token without network.
func (c *BkashClient) GetToken(ctx context.Context) (string, error) {
	if c.Simulated() {
		return "mock-token", nil
	}

	payload := map[string]string{
		"app_key":    c.creds.AppKey,
		"app_secret": c.creds.AppSecret,
	}
	var resp struct {
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
		IDToken       string `json:"id_token"`
	}
	headers := map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
	}
	if err := c.post(ctx, "/tokenized/checkout/token/grant", headers, payload, &resp); err != nil {
		return "", util.NewGatewayError("tokenized checkout token grant failed", err)
	}
	if resp.StatusCode != bkashStatusOK {
		c.logger.Error("tokenized checkout token rejected", zap.String("status_message", resp.StatusMessage))
		return "", util.NewGatewayAuthError("gateway_b")
	}
	return resp.IDToken, nil
}

// CreatePaymentResponse is the provider's create-payment reply.
type CreatePaymentResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
}

// CreatePayment opens a payment session. The merchant invoice number is
// suffixed with a Unix timestamp so every attempt is unique and retries are
// never rejected as duplicates; payerReference keeps the real number.
func (c *BkashClient) CreatePayment(ctx context.Context, token string, amount float64, invoiceNumber, callbackURL string) (*CreatePaymentResponse, error) {
	if c.Simulated() {
		paymentID := fmt.Sprintf(bkashMockIDPattern, invoiceNumber, c.now().Format("0405"))
		mockURL := fmt.Sprintf("%s?paymentID=%s&amount=%.2f",
			c.mockBase, url.QueryEscape(paymentID), amount)
		return &CreatePaymentResponse{
			StatusCode: bkashStatusOK,
			PaymentID:  paymentID,
			BkashURL:   mockURL,
		}, nil
	}

	uniqueInvoiceID := fmt.Sprintf("%s_%d", invoiceNumber, c.now().Unix())
	payload := map[string]string{
		"mode":                  "0011",
		"payerReference":        invoiceNumber,
		"callbackURL":           callbackURL,
		"amount":                fmt.Sprintf("%.2f", amount),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": uniqueInvoiceID,
	}

	var resp CreatePaymentResponse
	headers := map[string]string{
		"Authorization": token,
		"X-APP-Key":     c.creds.AppKey,
	}
	if err := c.post(ctx, "/tokenized/checkout/create", headers, payload, &resp); err != nil {
		return nil, util.NewGatewayError("tokenized checkout create failed", err)
	}
	if resp.StatusCode != bkashStatusOK || resp.BkashURL == "" {
		c.logger.Error("tokenized checkout create rejected",
			zap.String("invoice_number", invoiceNumber),
			zap.String("status_message", resp.StatusMessage))
		return nil, util.NewGatewayError(resp.StatusMessage, nil)
	}
	return &resp, nil
}

// ExecutePaymentResponse is the provider's execute reply.
type ExecutePaymentResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	PaymentID     string `json:"paymentID"`
	TrxID         string `json:"trxID"`
	Amount        string `json:"amount"`
}

// ExecutePayment finalizes a session after the customer redirect. Simulation
// mode settles immediately with a trx id derived from the payment id.
func (c *BkashClient) ExecutePayment(ctx context.Context, token, paymentID string) (*ExecutePaymentResponse, error) {
	if c.Simulated() {
		return &ExecutePaymentResponse{
			StatusCode: bkashStatusOK,
			PaymentID:  paymentID,
			TrxID:      paymentID,
		}, nil
	}

	payload := map[string]string{"paymentID": paymentID}
	var resp ExecutePaymentResponse
	headers := map[string]string{
		"Authorization": token,
		"X-APP-Key":     c.creds.AppKey,
	}
	if err := c.post(ctx, "/tokenized/checkout/execute", headers, payload, &resp); err != nil {
		return nil, util.NewGatewayError("tokenized checkout execute failed", err)
	}
	if resp.StatusCode != bkashStatusOK {
		return nil, util.NewGatewayError(resp.StatusMessage, nil)
	}
	return &resp, nil
}

func (c *BkashClient) post(ctx context.Context, path string, headers map[string]string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
