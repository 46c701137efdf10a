// Package utils provides small, generic helpers used across layers.
package utils

import "strconv"

// Paging bounds shared by list endpoints.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault parses s, returning def when s is empty or not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage parses raw page and page_size values and bounds them to
// [1, ∞) and [1, MaxPageSize].
func ClampPage(rawPage, rawSize string) (page, pageSize int) {
	page = AtoiDefault(rawPage, DefaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = AtoiDefault(rawSize, DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// PageWindow returns the half-open slice window [start, end) of page within
// total items, plus the number of pages. Pages past the end yield an empty
// window.
func PageWindow(total, page, pageSize int) (start, end, pages int) {
	if pageSize < 1 {
		pageSize = 1
	}
	pages = (total + pageSize - 1) / pageSize
	start = (page - 1) * pageSize
	if start > total || start < 0 {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end, pages
}
