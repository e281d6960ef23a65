package location

import (
	"github.com/shopbench/shopbench/internal/types"
)

// Location is a physical shop of a tenant. Free locations are excluded from billing.
type Location struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	IsFree bool   `db:"is_free" json:"is_free"`

	types.BaseModel
}

// BillingCounts partitions a tenant's non-deleted locations by the free flag
type BillingCounts struct {
	Billable int `db:"billable"`
	Free     int `db:"free"`
}
