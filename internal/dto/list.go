package dto

// Paging defaults for list endpoints
const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// ListParams are the query parameters shared by every list endpoint.
// A request that changes any filter is expected to start again from page 1.
type ListParams struct {
	Q     string `form:"q" json:"q,omitempty" binding:"omitempty,max=200"`
	Page  int    `form:"page" json:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" json:"limit" binding:"omitempty,min=1,max=100"`
	Sort  string `form:"sort" json:"sort,omitempty" binding:"omitempty,max=50"`
	Order string `form:"order" json:"order,omitempty" binding:"omitempty,oneof=asc desc"`
}

// Normalize fills defaults and clamps out-of-range values
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
}

// Offset returns the row offset of the current page
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Page is one page of a list view
// @Description Paginated list. hasMore is true while page*limit < total.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"hasMore"`
}

// NewPage builds a Page, never returning a nil Items slice
func NewPage[T any](items []T, total int64, params ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
		HasMore: int64(params.Page)*int64(params.Limit) < total,
	}
}
