package dto

// Pagination defines parameters for paginated requests.
// These are typically query parameters.
type Pagination struct {
	Limit  int `query:"limit"`  // Number of items per page
	Offset int `query:"offset"` // Number of items to skip
	Page   int `query:"page"`   // Page number (alternative to offset)
}

// Normalize applies defaults and converts page numbers to offsets.
func (p *Pagination) Normalize(defaultLimit, maxLimit int) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Page > 0 && p.Offset == 0 {
		p.Offset = (p.Page - 1) * p.Limit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PaginationInfo defines pagination details for responses.
type PaginationInfo struct {
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

// NewPaginationInfo computes page numbers from an offset pagination and the
// unpaginated total.
func NewPaginationInfo(pagination Pagination, total int) PaginationInfo {
	currentPage := 0
	totalPages := 0
	if pagination.Limit > 0 {
		currentPage = pagination.Offset/pagination.Limit + 1
		totalPages = (total + pagination.Limit - 1) / pagination.Limit
	}
	return PaginationInfo{
		TotalItems:  int64(total),
		Limit:       pagination.Limit,
		Offset:      pagination.Offset,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
	}
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
