package downloader

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "context canceled", err: context.Canceled, statusCode: 0, expected: "canceled"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: nil, statusCode: http.StatusInternalServerError, expected: "other"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err, tt.statusCode); got != tt.expected {
				t.Fatalf("classify(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 404}
	if err.Error() != "http status 404" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
