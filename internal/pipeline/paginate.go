package pipeline

import "github.com/procurehq/vendorscout/internal/candidate"

// PageInfo is the pagination metadata returned alongside each page.
type PageInfo struct {
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"` // 1-based for display
	PageSize    int  `json:"page_size"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	StartItem   int  `json:"start_item"`
	EndItem     int  `json:"end_item"`
}

// Page returns the requested zero-based slice of items. Out-of-range pages
// yield an empty slice, never an error.
func Page(items []candidate.Candidate, page, pageSize int) []candidate.Candidate {
	if len(items) == 0 || page < 0 || pageSize <= 0 {
		return nil
	}

	start := page * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Info computes pagination metadata for a total of totalItems at the given
// zero-based page.
func Info(totalItems, page, pageSize int) PageInfo {
	info := PageInfo{
		TotalItems:  totalItems,
		CurrentPage: page + 1,
		PageSize:    pageSize,
	}
	if totalItems > 0 && pageSize > 0 {
		info.TotalPages = (totalItems + pageSize - 1) / pageSize
		info.StartItem = page*pageSize + 1
		info.EndItem = (page + 1) * pageSize
		if info.EndItem > totalItems {
			info.EndItem = totalItems
		}
		if info.StartItem > totalItems {
			info.StartItem = 0
			info.EndItem = 0
		}
	}
	info.HasNext = page < info.TotalPages-1
	info.HasPrev = page > 0
	return info
}

// ClampPage normalizes caller-supplied pagination: page is floored at zero
// and pageSize clamped to [1, maxPageSize]. Malformed paging is a caller
// error handled by clamping, not rejection.
func ClampPage(page, pageSize, maxPageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
