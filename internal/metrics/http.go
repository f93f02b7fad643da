package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// crmResources are the route segments reported as the resource label
var crmResources = map[string]bool{
	"clients":       true,
	"contacts":      true,
	"leads":         true,
	"opportunities": true,
	"pipelines":     true,
	"projects":      true,
	"tasks":         true,
	"attachments":   true,
	"dashboard":     true,
	"profiles":      true,
	"me":            true,
}

// httpMetrics are the request metrics. Routes are labelled twice: by gin route
// pattern, and by CRM resource and operation so dashboards can group them.
type httpMetrics struct {
	HTTPRequestsTotal         *prometheus.CounterVec
	HTTPRequestDuration       *prometheus.HistogramVec
	HTTPResourceRequestsTotal *prometheus.CounterVec
	HTTPAccessDeniedTotal     *prometheus.CounterVec
}

func newHTTPMetrics(factory promauto.Factory) httpMetrics {
	return httpMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route pattern",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		HTTPResourceRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_resource_requests_total",
				Help:      "Total number of API requests by CRM resource and operation",
			},
			[]string{"resource", "operation", "status"},
		),
		HTTPAccessDeniedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_access_denied_total",
				Help:      "Total number of requests refused with 401 or 403 by CRM resource",
			},
			[]string{"resource", "status"},
		),
	}
}

// RecordHTTPRequest records one request against its route pattern and CRM resource
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		status := categorizeStatus(statusCode)
		m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())

		resource, operation := RouteResource(method, endpoint)
		m.HTTPResourceRequestsTotal.WithLabelValues(resource, operation, status).Inc()
		if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
			m.HTTPAccessDeniedTotal.WithLabelValues(resource, http.StatusText(statusCode)).Inc()
		}
	})
}

// RouteResource maps a route pattern such as /api/crm/leads/:id/convert to its
// resource ("leads") and operation ("convert"). Plain routes use the permission
// verbs view, create, update and delete; unknown routes report "other".
func RouteResource(method, endpoint string) (string, string) {
	segments := strings.Split(strings.Trim(endpoint, "/"), "/")
	resource := "other"
	at := -1
	for i, seg := range segments {
		if crmResources[seg] {
			resource, at = seg, i
			break
		}
	}
	if resource == "me" {
		resource = "profiles"
	}

	if at >= 0 {
		rest := segments[at+1:]
		if n := len(rest); n > 0 && !strings.HasPrefix(rest[n-1], ":") && rest[n-1] != "*any" {
			switch rest[n-1] {
			case "move", "convert", "confirm", "stats", "count", "ws", "role":
				return resource, rest[n-1]
			}
		}
	}

	switch method {
	case http.MethodPost:
		return resource, "create"
	case http.MethodPut, http.MethodPatch:
		return resource, "update"
	case http.MethodDelete:
		return resource, "delete"
	default:
		return resource, "view"
	}
}

// categorizeStatus converts status code to category (2xx, 3xx, 4xx, 5xx)
func categorizeStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// ShouldSkipEndpoint reports paths kept out of request metrics: probes, the
// scrape endpoint, swagger assets and long-lived board sockets.
func ShouldSkipEndpoint(path string) bool {
	return path == "/metrics" || path == "/health" || path == "/ready" ||
		strings.HasSuffix(path, "/metrics") || strings.HasSuffix(path, "/health") ||
		strings.HasSuffix(path, "/ready") || strings.HasSuffix(path, "/ws") ||
		strings.Contains(path, "/swagger/")
}
