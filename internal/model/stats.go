package model

// Stats is the dashboard summary across all three collections.
type Stats struct {
	Clients  int `json:"clients" yaml:"clients"`
	Projects int `json:"projects" yaml:"projects"`
	Invoices int `json:"invoices" yaml:"invoices"`

	// Revenue sums every invoice amount regardless of status.
	Revenue float64 `json:"revenue" yaml:"revenue"`

	// PaidRevenue counts Paid invoices only.
	PaidRevenue float64 `json:"paid_revenue" yaml:"paid_revenue"`

	// OutstandingRevenue counts Pending invoices only.
	OutstandingRevenue float64 `json:"outstanding_revenue" yaml:"outstanding_revenue"`
}
