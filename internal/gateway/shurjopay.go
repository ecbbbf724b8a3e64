package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/pkg/util"
)

// spCodeSuccess is the provider's verification code for a settled payment.
const spCodeSuccess = 1000

// spNumericFields lists verification response fields that must normalize to
// 0.0 when the provider omits them.
var spNumericFields = map[string]bool{
	"amount":          true,
	"discount_amount": true,
	"usd_amt":         true,
	"sp_code":         true,
}

// ShurjoPayClient drives the hosted-checkout provider. A fresh token is
// fetched per operation; the provider's tokens are short lived and caching
// them across requests is not worth the staleness handling.
type ShurjoPayClient struct {
	cfg    config.GatewayAConfig
	http   *http.Client
	logger *zap.Logger
}

// NewShurjoPayClient creates a hosted-checkout client.
func NewShurjoPayClient(cfg config.GatewayAConfig, logger *zap.Logger) *ShurjoPayClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ShurjoPayClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type spToken struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	StoreID   int    `json:"store_id"`
}

// GetToken exchanges store credentials for a bearer token.
func (c *ShurjoPayClient) GetToken(ctx context.Context) (*spToken, error) {
	payload := map[string]string{
		"username": c.cfg.StoreID,
		"password": c.cfg.StorePassword,
	}
	var tok spToken
	if err := c.post(ctx, "/api/get_token", "", payload, &tok); err != nil {
		return nil, util.NewGatewayError("hosted checkout token request failed", err)
	}
	if tok.Token == "" {
		return nil, util.NewGatewayAuthError("gateway_a")
	}
	return &tok, nil
}

// MakePayment opens a checkout session and returns the redirect URL plus the
// provider's correlation id.
func (c *ShurjoPayClient) MakePayment(ctx context.Context, req PaymentRequest) (*Session, error) {
	tok, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "BDT"
	}
	city := req.CustomerCity
	if city == "" {
		city = "Dhaka"
	}
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	payload := map[string]interface{}{
		"prefix":           c.cfg.Prefix,
		"token":            tok.Token,
		"return_url":       req.ReturnURL,
		"cancel_url":       req.CancelURL,
		"store_id":         tok.StoreID,
		"amount":           req.Amount,
		"order_id":         req.OrderID,
		"currency":         currency,
		"customer_name":    req.CustomerName,
		"customer_address": req.CustomerAddress,
		"customer_email":   req.CustomerEmail,
		"customer_phone":   req.CustomerPhone,
		"customer_city":    city,
		"client_ip":        clientIP,
	}

	var resp struct {
		CheckoutURL string `json:"checkout_url"`
		SpOrderID   string `json:"sp_order_id"`
		Message     string `json:"message"`
	}
	auth := fmt.Sprintf("Bearer %s", tok.Token)
	if err := c.post(ctx, "/api/secret-pay", auth, payload, &resp); err != nil {
		return nil, util.NewGatewayError("hosted checkout session request failed", err)
	}
	if resp.CheckoutURL == "" {
		c.logger.Error("hosted checkout session rejected",
			zap.String("order_id", req.OrderID),
			zap.String("message", resp.Message))
		return nil, util.NewGatewayError(resp.Message, nil)
	}
	return &Session{CorrelationID: resp.SpOrderID, CheckoutURL: resp.CheckoutURL}, nil
}

// VerifyPayment resolves the final state of a checkout session. In sandbox
// mode verification is always simulated as successful without contacting the
// provider; this is an environment switch, not a shortcut.
func (c *ShurjoPayClient) VerifyPayment(ctx context.Context, correlationID string) (*Result, error) {
	if c.cfg.Sandbox {
		return &Result{
			Status:        StatusCompleted,
			CorrelationID: correlationID,
			Method:        "Sandbox Test Card",
			TransactionID: "MOCK",
			Amount:        0,
			Message:       "Sandboxed Payment Success",
			Raw: map[string]interface{}{
				"sp_code":     spCodeSuccess,
				"message":     "Sandboxed Payment Success",
				"order_id":    correlationID,
				"method":      "Sandbox Test Card",
				"bank_trx_id": "MOCK",
				"currency":    "BDT",
			},
		}, nil
	}

	tok, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	auth := fmt.Sprintf("%s %s", tok.TokenType, tok.Token)
	var list []map[string]interface{}
	payload := map[string]string{"order_id": correlationID}
	if err := c.post(ctx, "/api/verification", auth, payload, &list); err != nil {
		return nil, util.NewGatewayError("hosted checkout verification failed", err)
	}
	if len(list) == 0 {
		return nil, util.NewGatewayError("empty verification response", nil)
	}

	raw := normalizeVerification(list[0])
	result := &Result{
		Status:        StatusFailed,
		CorrelationID: stringField(raw, "order_id"),
		Method:        stringField(raw, "method"),
		TransactionID: stringField(raw, "bank_trx_id"),
		Amount:        floatField(raw, "amount"),
		Message:       stringField(raw, "sp_message"),
		Raw:           raw,
	}
	if floatField(raw, "sp_code") == spCodeSuccess {
		result.Status = StatusCompleted
	}
	return result, nil
}

// normalizeVerification replaces provider nulls: numeric fields become 0.0,
// everything else an empty string.
func normalizeVerification(details map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(details))
	for key, value := range details {
		if value == nil {
			if spNumericFields[key] {
				cleaned[key] = 0.0
			} else {
				cleaned[key] = ""
			}
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}

func stringField(raw map[string]interface{}, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

func floatField(raw map[string]interface{}, key string) float64 {
	if v, ok := raw[key].(float64); ok {
		return v
	}
	return 0
}

func (c *ShurjoPayClient) post(ctx context.Context, path, authorization string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
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
