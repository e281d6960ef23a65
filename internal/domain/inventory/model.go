package inventory

import (
	"time"

	"github.com/shopbench/shopbench/internal/types"
)

// Item is a stock keeping unit of a tenant
type Item struct {
	ID   string  `db:"id" json:"id"`
	SKU  *string `db:"sku" json:"sku,omitempty"`
	Name string  `db:"name" json:"name"`

	types.BaseModel
}

// LocationQuantity is one row of the per-location stock ledger
type LocationQuantity struct {
	TenantID        string    `db:"tenant_id" json:"tenant_id"`
	InventoryItemID string    `db:"inventory_item_id" json:"inventory_item_id"`
	LocationID      string    `db:"location_id" json:"location_id"`
	Quantity        int       `db:"quantity" json:"quantity"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
