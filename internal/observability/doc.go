// Package observability builds the process logger and the Prometheus HTTP
// metrics used by the blog API.
package observability
