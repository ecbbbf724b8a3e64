package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/pkg/util"
)

func spTestServer(t *testing.T, verification []map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/get_token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      "sp-token",
			"token_type": "Bearer",
			"store_id":   1,
		})
	})
	mux.HandleFunc("/api/secret-pay", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"checkout_url": "https://provider.example/checkout/abc",
			"sp_order_id":  "SP-ORDER-1",
		})
	})
	mux.HandleFunc("/api/verification", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(verification)
	})
	return httptest.NewServer(mux)
}

func spClient(baseURL string, sandbox bool) *ShurjoPayClient {
	return NewShurjoPayClient(config.GatewayAConfig{
		Enabled:       true,
		StoreID:       "store",
		StorePassword: "secret",
		Prefix:        "ISP",
		BaseURL:       baseURL,
		Sandbox:       sandbox,
	}, zap.NewNop())
}

func TestShurjoPayVerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Given sandbox mode When verifying Then success is simulated without network", func(t *testing.T) {
		// Given: no server behind the base URL, so any HTTP call would fail.
		client := spClient("http://127.0.0.1:0", true)

		// When
		result, err := client.VerifyPayment(ctx, "SP-ORDER-1")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != StatusCompleted {
			t.Fatalf("expected completed, got %s", result.Status)
		}
		if result.CorrelationID != "SP-ORDER-1" {
			t.Fatalf("expected correlation id preserved, got %q", result.CorrelationID)
		}
	})

	t.Run("Given a settled live payment with null fields When verifying Then fields normalize", func(t *testing.T) {
		// Given
		server := spTestServer(t, []map[string]interface{}{{
			"sp_code":         float64(1000),
			"order_id":        "SP-ORDER-1",
			"bank_trx_id":     "TRX-9",
			"sp_message":      "Success",
			"method":          nil,
			"amount":          nil,
			"usd_amt":         nil,
			"discount_amount": nil,
		}})
		defer server.Close()
		client := spClient(server.URL, false)

		// When
		result, err := client.VerifyPayment(ctx, "SP-ORDER-1")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != StatusCompleted {
			t.Fatalf("expected completed, got %s", result.Status)
		}
		if result.Amount != 0 {
			t.Fatalf("expected null amount normalized to 0, got %v", result.Amount)
		}
		if result.Method != "" {
			t.Fatalf("expected null method normalized to empty, got %q", result.Method)
		}
		if result.Raw["amount"] != 0.0 {
			t.Fatalf("expected raw amount 0.0, got %v", result.Raw["amount"])
		}
		if result.Raw["method"] != "" {
			t.Fatalf("expected raw method empty string, got %v", result.Raw["method"])
		}
	})

	t.Run("Given a non-success code When verifying Then the result is failed", func(t *testing.T) {
		// Given
		server := spTestServer(t, []map[string]interface{}{{
			"sp_code":    float64(1002),
			"order_id":   "SP-ORDER-1",
			"sp_message": "Cancelled",
		}})
		defer server.Close()
		client := spClient(server.URL, false)

		// When
		result, err := client.VerifyPayment(ctx, "SP-ORDER-1")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != StatusFailed {
			t.Fatalf("expected failed, got %s", result.Status)
		}
	})

	t.Run("Given an empty verification list When verifying Then a gateway error is returned", func(t *testing.T) {
		// Given
		server := spTestServer(t, []map[string]interface{}{})
		defer server.Close()
		client := spClient(server.URL, false)

		// When
		_, err := client.VerifyPayment(ctx, "SP-ORDER-1")

		// Then
		var domainErr *util.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != "GATEWAY_ERROR" {
			t.Fatalf("expected GATEWAY_ERROR, got %v", err)
		}
	})
}

func TestShurjoPayMakePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Given an accepted session When making payment Then the redirect and correlation id return", func(t *testing.T) {
		// Given
		server := spTestServer(t, nil)
		defer server.Close()
		client := spClient(server.URL, false)

		// When
		session, err := client.MakePayment(ctx, PaymentRequest{
			Amount:        900,
			OrderID:       "ORD-AAAA111111",
			CustomerName:  "Rahim Uddin",
			CustomerEmail: "rahim@example.com",
			CustomerPhone: "01700000000",
			ReturnURL:     "https://portal.example/payments/return",
			CancelURL:     "https://portal.example/payments/cancel",
		})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.CorrelationID != "SP-ORDER-1" {
			t.Fatalf("expected provider correlation id, got %q", session.CorrelationID)
		}
		if session.CheckoutURL != "https://provider.example/checkout/abc" {
			t.Fatalf("unexpected checkout URL %q", session.CheckoutURL)
		}
	})

	t.Run("Given rejected credentials When making payment Then an auth error is returned", func(t *testing.T) {
		// Given
		mux := http.NewServeMux()
		mux.HandleFunc("/api/get_token", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"token": ""})
		})
		server := httptest.NewServer(mux)
		defer server.Close()
		client := spClient(server.URL, false)

		// When
		_, err := client.MakePayment(ctx, PaymentRequest{Amount: 900, OrderID: "ORD-1"})

		// Then
		var domainErr *util.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != "GATEWAY_AUTH_FAILED" {
			t.Fatalf("expected GATEWAY_AUTH_FAILED, got %v", err)
		}
	})
}
