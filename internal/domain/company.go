package domain

import "time"

// GatewayACredentials configures a company's hosted-checkout store account.
type GatewayACredentials struct {
	Enabled       bool   `json:"enabled"`
	StoreID       string `json:"store_id"`
	StorePassword string `json:"store_password"`
	Prefix        string `json:"prefix"`
	Sandbox       bool   `json:"sandbox"`
}

// GatewayBCredentials configures a company's tokenized-checkout merchant
// account. Username "demo" switches the client into simulation mode.
type GatewayBCredentials struct {
	Enabled   bool   `json:"enabled"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
	Sandbox   bool   `json:"is_sandbox"`
}

// RouterSettings locate a company's edge router for PPPoE reactivation.
type RouterSettings struct {
	IP       string `json:"router_ip"`
	Username string `json:"router_user"`
	Password string `json:"router_password"`
	APIPort  int    `json:"router_api_port"`
}

// Company is an ISP tenant. SLAConfig is nil when the company carries no
// override; callers fall back to DefaultSLATable.
type Company struct {
	ID           string
	Name         string
	ContactEmail string
	SLAConfig    SLATable
	GatewayB     GatewayBCredentials
	Router       RouterSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
