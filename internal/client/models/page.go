package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListParams are the query parameters of GET /products.
type ListParams struct {
	Page   int    `url:"page"`
	Limit  int    `url:"limit"`
	Search string `url:"search,omitempty"`
}

// Normalize fills in defaults for non-positive page and limit.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Page is one slice of the product collection.
type Page struct {
	Items      []Product
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// TotalPagesFor returns ceil(total/limit), or 0 when limit is not positive.
func TotalPagesFor(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool {
	return p.Page > 1
}
