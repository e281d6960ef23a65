package types

// PaginationResponse describes the window a list response covers
type PaginationResponse struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListResponse is the envelope of every list endpoint
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewListResponse pages items with the limit and offset of filter.
// Items is never nil so empty lists encode as [].
func NewListResponse[T any](items []T, total int, filter *QueryFilter) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	limit, offset := filter.GetLimit(), filter.GetOffset()
	return ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
		},
	}
}
