package gateway

// FailedCorrelationPrefix marks a hosted-checkout return whose correlation id
// indicates a cancelled or failed session. Such returns redirect the user but
// never touch order state.
const FailedCorrelationPrefix = "NOK"

// Status classifies a verification outcome.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Session is a freshly created checkout session the customer is redirected to.
type Session struct {
	CorrelationID string
	CheckoutURL   string
}

// Result is a normalized verification outcome. Numeric fields a provider may
// omit are 0.0 and textual fields empty strings, never absent; downstream
// formatting cannot tolerate missing numerics.
type Result struct {
	Status        Status
	CorrelationID string
	Method        string
	TransactionID string
	Amount        float64
	Message       string
	Raw           map[string]interface{}
}

// PaymentRequest carries everything a hosted checkout needs to open a session.
type PaymentRequest struct {
	Amount          float64
	OrderID         string
	Currency        string
	CustomerName    string
	CustomerAddress string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCity    string
	ClientIP        string
	ReturnURL       string
	CancelURL       string
}
