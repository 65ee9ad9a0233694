package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta derives page counts. A zero pageSize means the whole set
// was returned as one page.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	meta := PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: 1}
	if pageSize > 0 && total > 0 {
		meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return meta
}

// SinglePage describes an unpaged list of n items.
func SinglePage(n int) PaginationMeta {
	return NewPaginationMeta(1, n, int64(n))
}

// Outcome reports post-commit side effects that failed. The primary write
// has already committed when Degraded is true.
type Outcome struct {
	Degraded bool     `json:"degraded"`
	Warnings []string `json:"warnings,omitempty"`
}
