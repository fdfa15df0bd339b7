package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// Complaint submission counter
	ComplaintSubmittedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_submitted_count",
			Help: "Total number of complaints submitted",
		},
		[]string{"exam_type"},
	)

	// Status transition counter
	ComplaintStatusChangeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_change_count",
			Help: "Total number of complaint status transitions",
		},
		[]string{"status"},
	)

	// Email delivery counter
	EmailSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_sent_count",
			Help: "Total number of transactional emails sent",
		},
		[]string{"template", "status"}, // status: success, failed
	)
)

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records one database operation.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementComplaintSubmitted bumps the submission counter.
func IncrementComplaintSubmitted(examType string) {
	ComplaintSubmittedCount.WithLabelValues(examType).Inc()
}

// IncrementStatusChange bumps the transition counter.
func IncrementStatusChange(status string) {
	ComplaintStatusChangeCount.WithLabelValues(status).Inc()
}

// IncrementEmailSent bumps the email counter.
func IncrementEmailSent(template string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	EmailSentCount.WithLabelValues(template, status).Inc()
}
