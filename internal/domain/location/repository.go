package location

import "context"

// Repository is scoped to the tenant in ctx
type Repository interface {
	Get(ctx context.Context, id string) (*Location, error)
	// GetFirst returns the tenant's first-ever location. Deleted rows count,
	// so removing the first location never promotes the second one.
	GetFirst(ctx context.Context) (*Location, error)
	CountByBilling(ctx context.Context) (*BillingCounts, error)
	UpdateIsFree(ctx context.Context, id string, isFree bool) error
}
