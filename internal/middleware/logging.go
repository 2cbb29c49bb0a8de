// Package middleware wraps the HTTP transport used to reach the ledger
// service.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// LoggingTransport returns a transport that logs every ledger request and
// records its duration. It logs the method, path, status and duration, and
// the error when no response was received. m may be nil.
func LoggingTransport(next http.RoundTripper, m *metrics.Metrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		path := req.URL.Path

		resp, err := next.RoundTrip(req)

		elapsed := time.Since(start)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if m != nil {
			m.ObserveRemote(path, status, elapsed)
		}

		switch {
		case err != nil:
			slog.Error("Ledger request failed",
				"method", req.Method,
				"path", path,
				"error", err,
				"duration_ms", elapsed.Milliseconds(),
			)
		case status >= http.StatusBadRequest:
			slog.Warn("Ledger request error",
				"method", req.Method,
				"path", path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)
		default:
			slog.Debug("Ledger request ok",
				"method", req.Method,
				"path", path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)
		}

		return resp, err
	})
}
