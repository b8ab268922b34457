// Package logutil provides logging convenience functions.
package logutil

import (
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/act3-ai/go-common/pkg/logger"
	"github.com/act3-ai/go-common/pkg/redact"
)

var requestNumber atomic.Int64

// LoggingTransport logs blob-service requests to the request's context.
//
// Bodies are never dumped: they are typically packfiles and may exceed
// available memory. Only metadata is logged, with credentials redacted.
type LoggingTransport struct {
	Base http.RoundTripper
}

// RoundTrip logs http request and response metadata while redacting
// sensitive information.
func (s *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := logger.V(logger.FromContext(ctx).WithGroup("http").With("requestID", requestNumber.Add(1)), 8)

	start := time.Now()
	resp, err := s.Base.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"url", redactURL(req.URL),
		"contentLength", req.ContentLength,
		"elapsed", time.Since(start).String(),
	}
	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
	case resp != nil:
		attrs = append(attrs, "status", resp.Status)
	}
	log.InfoContext(ctx, "blob service request", attrs...)

	return resp, err //nolint:wrapcheck
}

// redactURL removes user credentials and redacts the query string, signed
// URLs carry credentials in both places.
func redactURL(u *url.URL) string {
	c := *u
	c.User = nil
	if c.RawQuery != "" {
		c.RawQuery = redact.String(c.RawQuery)
	}
	return c.String()
}
