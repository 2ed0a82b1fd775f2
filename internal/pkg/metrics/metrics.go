package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTPsIssued counts one-time codes generated and emailed.
	OTPsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studygroup_otp_issued_total",
			Help: "Total number of OTP codes issued",
		},
	)

	// OTPVerifications records OTP verification attempts by result
	// (success|not_found|expired|invalid|invalid_request|error).
	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studygroup_otp_verifications_total",
			Help: "Total number of OTP verification attempts",
		},
		[]string{"result"},
	)

	// Logins records direct login attempts by result (success|not_found|error).
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studygroup_logins_total",
			Help: "Total number of direct login attempts",
		},
		[]string{"result"},
	)

	// TokenVerifications records ID token checks by result (success|failure).
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studygroup_token_verifications_total",
			Help: "Total number of ID token verifications",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studygroup_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
