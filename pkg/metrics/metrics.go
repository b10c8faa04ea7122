package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "revline", Name: "auth_events_total", Help: "Number of auth-state change events processed by type."},
		[]string{"event"},
	)
	PhotoUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "revline", Name: "photo_uploads_total", Help: "Number of photo upload batches by outcome."},
		[]string{"outcome"},
	)
	ThumbnailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "revline", Name: "thumbnail_failures_total", Help: "Number of thumbnail uploads that failed (non-fatal)."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "revline", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "revline", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthEvents)
	reg.MustRegister(PhotoUploads)
	reg.MustRegister(ThumbnailFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
