// Package pagination computes page metadata.
package pagination

import "github.com/aanand-mishra/records-api/internal/types"

// Paginate derives the metadata of page out of total items split into
// pages of limit. It expects page >= 1 and limit >= 1.
func Paginate(total int64, page, limit int) types.Pagination {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return types.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
