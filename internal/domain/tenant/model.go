package tenant

import (
	"time"

	"github.com/shopbench/shopbench/internal/types"
)

// Tenant is a repair shop company account, the unit of data isolation
type Tenant struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	BillingEmail *string      `db:"billing_email" json:"billing_email,omitempty"`
	Status       types.Status `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
