package airline

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeClientError    = "client_error"
	outcomeServerError    = "server_error"
	outcomeTransportError = "transport_error"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airorders_airline_requests_total",
		Help: "Airline API calls by method, route and outcome",
	}, []string{"method", "route", "outcome"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "airorders_airline_request_duration_seconds",
		Help:    "Airline API call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// route turns a request path into a label with the resource id masked,
// e.g. /air/orders/ord_1/actions/cancel becomes /air/orders/{id}/actions/cancel.
func route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > 2 {
		parts[2] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}

func outcomeOf(status int, err error) string {
	switch {
	case status >= http.StatusInternalServerError:
		return outcomeServerError
	case status >= http.StatusBadRequest:
		return outcomeClientError
	case status == 0 && err != nil:
		return outcomeTransportError
	default:
		return outcomeOK
	}
}

func observe(method, path string, status int, err error, started time.Time) {
	r := route(path)
	requestsTotal.WithLabelValues(method, r, outcomeOf(status, err)).Inc()
	requestDuration.WithLabelValues(method, r).Observe(time.Since(started).Seconds())
}
