package model

import "time"

// Invoice status values accepted by the store.
const (
	InvoiceStatusPending   = "Pending"
	InvoiceStatusPaid      = "Paid"
	InvoiceStatusCancelled = "Cancelled"
)

// InvoiceStatuses lists all invoice statuses.
var InvoiceStatuses = []string{
	InvoiceStatusPending,
	InvoiceStatusPaid,
	InvoiceStatusCancelled,
}

// Invoice is a bill issued against a project.
type Invoice struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID string    `json:"project_id" yaml:"project_id"`
	Number    string    `json:"number" yaml:"number"`
	Amount    float64   `json:"amount" yaml:"amount"`
	Date      string    `json:"date" yaml:"date"`
	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IsInvoiceStatus reports whether s is one of InvoiceStatuses.
func IsInvoiceStatus(s string) bool {
	for _, v := range InvoiceStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeInvoiceStatus coerces unknown or empty values to Pending.
func NormalizeInvoiceStatus(s string) string {
	if IsInvoiceStatus(s) {
		return s
	}
	return InvoiceStatusPending
}
