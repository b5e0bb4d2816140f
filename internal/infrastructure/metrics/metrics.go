package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// SignatureOperations tracks lifecycle operations by outcome
	SignatureOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_signature_operations_total",
		Help: "Total number of signature lifecycle operations",
	}, []string{"operation", "result"})

	// ApiKeyAuth tracks API key authentication attempts
	ApiKeyAuth = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_api_key_auth_total",
		Help: "Total number of API key authentication attempts",
	}, []string{"result"})

	// RateLimited tracks requests rejected by the abuse guard
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"class"})

	// Notifications tracks outbound signer notifications
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_notifications_total",
		Help: "Total number of signer notifications dispatched",
	}, []string{"kind", "result"})

	// PdfProcessing tracks document marking time per stage
	PdfProcessing = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esign_pdf_processing_seconds",
		Help:    "Histogram of PDF marking duration by stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// Outcome maps an error to a result label
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveStage records the time spent in a PDF stage since start
func ObserveStage(stage string, start time.Time) {
	PdfProcessing.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
