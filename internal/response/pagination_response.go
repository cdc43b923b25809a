package response

// Pagination describes one page of a limit/offset listing. Page is derived
// from the offset; From and To are 1-based item positions, zero when the page
// is empty.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}
