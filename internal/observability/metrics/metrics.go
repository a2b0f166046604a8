// Package metrics регистрирует Prometheus-метрики сервиса и предоставляет
// функции для их записи из HTTP-слоя и бизнес-логики.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicemanager_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicemanager_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	invoicesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicemanager_invoices_created_total",
		Help: "Count of created invoices by initial status",
	}, []string{"status"})

	authOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicemanager_auth_operations_total",
		Help: "Count of auth operations by kind and result",
	}, []string{"operation", "result"})
)

// ObserveHTTPRequest записывает метрики одного HTTP-запроса.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveInvoiceCreated увеличивает счётчик созданных счетов.
func ObserveInvoiceCreated(status string) {
	invoicesCreated.WithLabelValues(status).Inc()
}

// ObserveAuthOperation увеличивает счётчик операций аутентификации.
func ObserveAuthOperation(operation, result string) {
	authOperations.WithLabelValues(operation, result).Inc()
}
