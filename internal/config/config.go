package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal. It is loaded once
// and passed explicitly; nothing reads ambient global settings.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	GatewayA     GatewayAConfig
	GatewayB     GatewayBConfig
	Router       RouterConfig
	Scheduler    SchedulerConfig
	Worker       WorkerConfig
	Shop         ShopConfig
	Courier      CourierConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	BaseURL               string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// GatewayAConfig holds hosted-checkout (ShurjoPay style) store credentials.
// Sandbox is a deliberate environment switch: verification is simulated as
// successful without contacting the provider.
type GatewayAConfig struct {
	Enabled          bool
	StoreID          string
	StorePassword    string
	Prefix           string
	BaseURL          string
	Sandbox          bool
	ReturnPath       string
	CancelPath       string
	ProductReturnURL string
	ProductCancelURL string
	TimeoutSeconds   int
}

// GatewayBConfig holds tokenized-checkout (bKash style) endpoints. Merchant
// credentials are per ISP company; only the callback surface is global.
type GatewayBConfig struct {
	CallbackPath     string
	MockCheckoutPath string
	TimeoutSeconds   int
}

// RouterConfig controls the service-reactivation collaborator.
type RouterConfig struct {
	Enabled        bool
	TimeoutSeconds int
}

// SchedulerConfig drives the periodic SLA breach sweep.
type SchedulerConfig struct {
	SweepSpec           string
	SweepTimeoutSeconds int
}

// WorkerConfig bounds the side-effect task queue.
type WorkerConfig struct {
	QueueSize int
	Workers   int
}

// ShopConfig holds product-shop pricing knobs.
type ShopConfig struct {
	ShippingInsideDhaka  float64
	ShippingOutsideDhaka float64
	CartTTLMinutes       int
}

// CourierConfig holds delivery-provider credentials for live shipment
// status lookups. A provider with blank credentials is simply skipped.
type CourierConfig struct {
	SteadfastBaseURL   string
	SteadfastAPIKey    string
	SteadfastSecretKey string
	PathaoBaseURL      string
	PathaoClientID     string
	PathaoClientSecret string
	PathaoUsername     string
	PathaoPassword     string
	TimeoutSeconds     int
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	AdminEmail string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "isp-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			BaseURL:               getEnv("APP_BASE_URL", "http://localhost:8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		GatewayA: GatewayAConfig{
			Enabled:          getEnvAsBool("GATEWAY_A_ENABLED", false),
			StoreID:          os.Getenv("GATEWAY_A_STORE_ID"),
			StorePassword:    os.Getenv("GATEWAY_A_STORE_PASSWORD"),
			Prefix:           getEnv("GATEWAY_A_PREFIX", "ISP"),
			BaseURL:          os.Getenv("GATEWAY_A_BASE_URL"),
			Sandbox:          getEnvAsBool("GATEWAY_A_SANDBOX", true),
			ReturnPath:       getEnv("GATEWAY_A_RETURN_PATH", "/payments/return"),
			CancelPath:       getEnv("GATEWAY_A_CANCEL_PATH", "/payments/cancel"),
			ProductReturnURL: getEnv("GATEWAY_A_PRODUCT_RETURN_PATH", "/payments/product/return"),
			ProductCancelURL: getEnv("GATEWAY_A_PRODUCT_CANCEL_PATH", "/payments/product/cancel"),
			TimeoutSeconds:   getEnvAsInt("GATEWAY_A_TIMEOUT_SECONDS", 10),
		},
		GatewayB: GatewayBConfig{
			CallbackPath:     getEnv("GATEWAY_B_CALLBACK_PATH", "/payments/bkash/callback"),
			MockCheckoutPath: getEnv("GATEWAY_B_MOCK_PATH", "/payments/bkash/mock"),
			TimeoutSeconds:   getEnvAsInt("GATEWAY_B_TIMEOUT_SECONDS", 10),
		},
		Router: RouterConfig{
			Enabled:        getEnvAsBool("ROUTER_REACTIVATION_ENABLED", true),
			TimeoutSeconds: getEnvAsInt("ROUTER_TIMEOUT_SECONDS", 10),
		},
		Scheduler: SchedulerConfig{
			SweepSpec:           getEnv("SLA_SWEEP_SPEC", "0 */10 * * * *"),
			SweepTimeoutSeconds: getEnvAsInt("SLA_SWEEP_TIMEOUT_SECONDS", 120),
		},
		Worker: WorkerConfig{
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 64),
			Workers:   getEnvAsInt("WORKER_COUNT", 1),
		},
		Shop: ShopConfig{
			ShippingInsideDhaka:  getEnvAsFloat("SHOP_SHIPPING_INSIDE_DHAKA", 60),
			ShippingOutsideDhaka: getEnvAsFloat("SHOP_SHIPPING_OUTSIDE_DHAKA", 120),
			CartTTLMinutes:       getEnvAsInt("SHOP_CART_TTL_MINUTES", 1440),
		},
		Courier: CourierConfig{
			SteadfastBaseURL:   getEnv("COURIER_STEADFAST_BASE_URL", "https://portal.steadfast.com.bd/api/v1"),
			SteadfastAPIKey:    os.Getenv("COURIER_STEADFAST_API_KEY"),
			SteadfastSecretKey: os.Getenv("COURIER_STEADFAST_SECRET_KEY"),
			PathaoBaseURL:      getEnv("COURIER_PATHAO_BASE_URL", "https://courier-api-sandbox.pathao.com"),
			PathaoClientID:     os.Getenv("COURIER_PATHAO_CLIENT_ID"),
			PathaoClientSecret: os.Getenv("COURIER_PATHAO_CLIENT_SECRET"),
			PathaoUsername:     os.Getenv("COURIER_PATHAO_USERNAME"),
			PathaoPassword:     os.Getenv("COURIER_PATHAO_PASSWORD"),
			TimeoutSeconds:     getEnvAsInt("COURIER_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			AdminEmail: os.Getenv("NOTIFY_ADMIN_EMAIL"),
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AbsoluteURL joins a path onto the externally visible base URL.
func (a AppConfig) AbsoluteURL(path string) string {
	return a.BaseURL + path
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
