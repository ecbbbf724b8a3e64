package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/pkg/util"
)

const (
	CourierSteadfast = "Steadfast"
	CourierPathao    = "Pathao"
)

// CourierClient asks a delivery provider for the live status of a shipped
// consignment. It is strictly read-only; booking consignments stays a manual
// back-office task. Callers treat any error as "no live status available".
type CourierClient struct {
	cfg    config.CourierConfig
	http   *http.Client
	logger *zap.Logger
}

// NewCourierClient builds a status client from provider credentials.
func NewCourierClient(cfg config.CourierConfig, logger *zap.Logger) *CourierClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CourierClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Status fetches the provider's current delivery state for a consignment,
// normalized to a display string. Unknown providers and blank credentials
// return a gateway error rather than guessing.
func (c *CourierClient) Status(ctx context.Context, courier, consignmentID string) (string, error) {
	switch courier {
	case CourierSteadfast:
		return c.steadfastStatus(ctx, consignmentID)
	case CourierPathao:
		return c.pathaoStatus(ctx, consignmentID)
	default:
		return "", util.NewGatewayError(fmt.Sprintf("unknown courier %q", courier), nil)
	}
}

type steadfastStatusResponse struct {
	Status         int    `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
}

func (c *CourierClient) steadfastStatus(ctx context.Context, consignmentID string) (string, error) {
	if c.cfg.SteadfastAPIKey == "" || c.cfg.SteadfastSecretKey == "" {
		return "", util.NewGatewayError("steadfast credentials not configured", nil)
	}

	url := fmt.Sprintf("%s/status_by_cid/%s", c.cfg.SteadfastBaseURL, consignmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", util.NewGatewayError("steadfast status request failed", err)
	}
	req.Header.Set("Api-Key", c.cfg.SteadfastAPIKey)
	req.Header.Set("Secret-Key", c.cfg.SteadfastSecretKey)

	var parsed steadfastStatusResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.Status != 200 || parsed.DeliveryStatus == "" {
		return "", util.NewGatewayError("steadfast reported no status for consignment", nil)
	}
	return titleStatus(parsed.DeliveryStatus), nil
}

type pathaoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type pathaoOrderResponse struct {
	Data struct {
		OrderStatus string `json:"order_status"`
	} `json:"data"`
}

func (c *CourierClient) pathaoStatus(ctx context.Context, consignmentID string) (string, error) {
	if c.cfg.PathaoClientID == "" || c.cfg.PathaoClientSecret == "" {
		return "", util.NewGatewayError("pathao credentials not configured", nil)
	}

	token, err := c.pathaoToken(ctx)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/aladdin/api/v1/orders/%s", c.cfg.PathaoBaseURL, consignmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", util.NewGatewayError("pathao status request failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	var parsed pathaoOrderResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.Data.OrderStatus == "" {
		return "", util.NewGatewayError("pathao reported no status for consignment", nil)
	}
	return titleStatus(strings.ReplaceAll(parsed.Data.OrderStatus, "_", " ")), nil
}

func (c *CourierClient) pathaoToken(ctx context.Context) (string, error) {
	payload := map[string]string{
		"client_id":     strings.TrimSpace(c.cfg.PathaoClientID),
		"client_secret": strings.TrimSpace(c.cfg.PathaoClientSecret),
		"username":      strings.TrimSpace(c.cfg.PathaoUsername),
		"password":      strings.TrimSpace(c.cfg.PathaoPassword),
		"grant_type":    "password",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", util.NewGatewayError("pathao token request failed", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.PathaoBaseURL+"/aladdin/api/v1/issue-token", strings.NewReader(string(body)))
	if err != nil {
		return "", util.NewGatewayError("pathao token request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed pathaoTokenResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", util.NewGatewayAuthError("pathao")
	}
	return parsed.AccessToken, nil
}

func (c *CourierClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return util.NewGatewayError("courier provider unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return util.NewGatewayError(fmt.Sprintf("courier provider returned HTTP %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return util.NewGatewayError("courier response malformed", err)
	}
	return nil
}

// titleStatus normalizes provider status strings such as "delivered" or
// "Pickup requested" to a single leading capital.
func titleStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return status
	}
	lower := strings.ToLower(status)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
