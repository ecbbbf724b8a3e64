package routerapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// Client talks to a company's edge router to toggle PPPoE secrets. Failures
// here are logged, never fatal: a paid invoice must settle even when the
// router is unreachable, and an operator re-enables the secret by hand.
type Client interface {
	EnablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error
	DisablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error
}

// logClient records router intents without touching hardware. It stands in
// until a RouterOS binding is configured, and in tests.
type logClient struct {
	logger *zap.Logger
}

// NewLogClient creates a client that only logs.
func NewLogClient(logger *zap.Logger) Client {
	return &logClient{logger: logger}
}

func (c *logClient) EnablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error {
	c.logger.Info("router enable pppoe",
		zap.String("router_ip", settings.IP),
		zap.Int("api_port", settings.APIPort),
		zap.String("pppoe_username", username))
	return nil
}

func (c *logClient) DisablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error {
	c.logger.Info("router disable pppoe",
		zap.String("router_ip", settings.IP),
		zap.Int("api_port", settings.APIPort),
		zap.String("pppoe_username", username))
	return nil
}
