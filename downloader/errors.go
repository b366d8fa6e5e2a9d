package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// HTTPStatusError marks a response whose status code failed the item.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// Failure categories surfaced in item results and metrics labels.
const (
	CategoryTimeout     = "timeout"
	CategoryConnection  = "connection"
	CategoryForbidden   = "forbidden"
	CategoryNotFound    = "not_found"
	CategoryRateLimited = "rate_limited"
	CategoryCanceled    = "canceled"
	CategoryOther       = "other"
)

// classify maps a transport error or HTTP status onto a failure category.
func classify(err error, statusCode int) string {
	switch statusCode {
	case http.StatusForbidden:
		return CategoryForbidden
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusTooManyRequests:
		return CategoryRateLimited
	}
	if statusCode >= http.StatusBadRequest {
		return CategoryOther
	}

	if errors.Is(err, context.Canceled) {
		return CategoryCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryConnection
	}
	return CategoryOther
}
