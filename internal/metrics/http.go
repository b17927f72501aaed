package metrics

import (
	"strconv"
	"strings"
	"time"
)

// UnmatchedRoute labels requests that hit no registered route, so random paths
// cannot grow the endpoint label set
const UnmatchedRoute = "unmatched"

// RecordHTTPRequest records one request under its route pattern
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		route = RouteLabel(route)
		m.HTTPRequestsTotal.WithLabelValues(method, route, categorizeStatus(statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	})
}

// RouteLabel maps gin's FullPath to a label value
func RouteLabel(fullPath string) string {
	if fullPath == "" {
		return UnmatchedRoute
	}
	return fullPath
}

// categorizeStatus returns the status class, e.g. "4xx"
func categorizeStatus(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// ShouldSkipEndpoint reports probe, scrape, docs and websocket paths that stay out of HTTP metrics.
// Websocket subscriptions last minutes and would skew the latency histogram.
func ShouldSkipEndpoint(path string) bool {
	for _, suffix := range []string{"/metrics", "/health", "/ready"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return strings.HasPrefix(path, "/swagger/") || strings.Contains(path, "/swagger/") ||
		strings.Contains(path, "/ws/")
}
