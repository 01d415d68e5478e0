package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// Limit returns the SQL limit for the page
func (p Page) Limit() int {
	return p.Size
}

// Offset returns the SQL offset for the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// DefaultPage is the first page with the default size
func DefaultPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// PageResult is a page of items with its request
type PageResult[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPageResult wraps items, never returning a nil slice
func NewPageResult[T any](items []T, page Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Page: page.Number, PageSize: page.Size}
}
