// Package metrics registers Prometheus metrics for the vault.
// HTTP metrics are recorded by the gin middleware; file operation
// metrics are updated from the service layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicevault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicevault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// File metrics
var (
	// FileOperationsTotal counts create/delete/transcribe outcomes.
	FileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicevault_file_operations_total",
			Help: "Total number of file lifecycle operations",
		},
		[]string{"operation", "result"},
	)

	// OrphanedBlobsTotal counts blobs written without a matching record.
	OrphanedBlobsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicevault_orphaned_blobs_total",
			Help: "Blobs left in storage after the metadata record failed to persist",
		},
	)
)

// Operation labels
const (
	OpCreate     = "create"
	OpDelete     = "delete"
	OpTranscribe = "transcribe"
)

// ObserveOperation records the outcome of a file operation
func ObserveOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	FileOperationsTotal.WithLabelValues(operation, result).Inc()
}

// Middleware returns gin middleware that records request count and duration.
// The route template is used as the path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
