package types

import (
	"time"

	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

const (
	FILTER_DEFAULT_LIMIT = 50

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Sort   *string `json:"sort,omitempty" form:"sort"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr("created_at"),
		Order:  lo.ToPtr(OrderDesc),
	}
}

// GetLimit returns the limit value or default if not set
func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return *f.Limit
}

// GetOffset returns the offset value or default if not set
func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

// GetSort returns the sort value or default if not set
func (f *QueryFilter) GetSort() string {
	if f == nil || f.Sort == nil {
		return "created_at"
	}
	return *f.Sort
}

// GetOrder returns the order value or default if not set
func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return OrderDesc
	}
	return *f.Order
}

// Validate validates the filter fields
func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > 1000) {
		return ierr.NewError("limit must be between 1 and 1000").
			WithHint("Limit must be between 1 and 1000").
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must be non-negative").
			WithHint("Offset must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != OrderAsc && *f.Order != OrderDesc {
		return ierr.NewError("order must be either 'asc' or 'desc'").
			WithHint("Order must be either 'asc' or 'desc'").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TimeRangeFilter adds time range filtering capabilities
type TimeRangeFilter struct {
	StartTime *time.Time `json:"start_time,omitempty" form:"start_time" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime   *time.Time `json:"end_time,omitempty" form:"end_time" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Validate validates the time range filter
func (f TimeRangeFilter) Validate() error {
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return ierr.NewError("end_time must be after start_time").
			WithHint("End time must be after start time").
			Mark(ierr.ErrValidation)
	}
	return nil
}
