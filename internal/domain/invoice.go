package domain

import (
	"fmt"
	"time"
)

// InvoiceStatus enumerates billing states for recurring invoices.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "Pending"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusVoid    InvoiceStatus = "Void"
)

// Invoice is a monthly subscription bill. GatewayPaymentID correlates the
// active tokenized-checkout session; it is cleared once the invoice is paid.
type Invoice struct {
	ID               string
	CompanyID        string
	CustomerID       string
	InvoiceNumber    string
	Amount           float64
	Status           InvoiceStatus
	PackageName      string
	IssueDate        time.Time
	PaidAt           *time.Time
	PaymentMethod    *string
	TransactionID    *string
	GatewayPaymentID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusPaid:    {},
	InvoiceStatusVoid:    {},
}

// CanTransitionInvoice reports whether from -> to is legal. Terminal states
// are final; reversal is a manual operation outside this service.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change.
func (i *Invoice) Transition(to InvoiceStatus, now time.Time) error {
	if !CanTransitionInvoice(i.Status, to) {
		return fmt.Errorf("illegal invoice transition %q -> %q", i.Status, to)
	}
	i.Status = to
	if to == InvoiceStatusPaid {
		ts := now.UTC()
		i.PaidAt = &ts
	}
	return nil
}
