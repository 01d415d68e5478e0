package utils

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/upb/blog-api/models"
)

// QueryError is returned for a malformed or out of range query parameter
type QueryError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *QueryError) Error() string {
	return e.Message
}

// ParsePagination reads page and page_size from the query string.
// page must be >= 1 and page_size within 1..100; both default when absent.
// A page whose offset would overflow int is rejected.
func ParsePagination(r *http.Request) (models.Page, error) {
	page := models.DefaultPage()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, &QueryError{Field: "page", Message: "Page must be an integer"}
		}
		if n < 1 {
			return page, &QueryError{Field: "page", Message: "Page must be >= 1"}
		}
		page.Number = n
	}

	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, &QueryError{Field: "page_size", Message: "Page size must be an integer"}
		}
		if n < 1 || n > models.MaxPageSize {
			return page, &QueryError{
				Field:   "page_size",
				Message: fmt.Sprintf("Page size must be between 1 and %d", models.MaxPageSize),
			}
		}
		page.Size = n
	}

	if page.Number-1 > math.MaxInt/page.Size {
		return page, &QueryError{Field: "page", Message: "Page is out of range"}
	}

	return page, nil
}
