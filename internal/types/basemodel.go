package types

import (
	"context"
	"time"
)

// BaseModel carries the audit and soft delete columns shared by every
// tenant scoped table. Changes here need a matching migration.
type BaseModel struct {
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

// GetDefaultBaseModel stamps a new published row for the tenant and user in ctx
func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	userID := GetUserID(ctx)
	return BaseModel{
		TenantID:  GetTenantID(ctx),
		Status:    StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
}

// Touch records an update at `at` by the user in ctx
func (b *BaseModel) Touch(ctx context.Context, at time.Time) {
	b.UpdatedAt = at.UTC()
	b.UpdatedBy = GetUserID(ctx)
}
