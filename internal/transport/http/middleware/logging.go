package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/studygroup-api/internal/pkg/logger"
	"github.com/studygroup-api/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Logger writes a structured access log line and records request latency.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		metrics.APILatency.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).Observe(duration.Seconds())
		logger.WithModule("http").Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("client_ip", realIP(r)),
		)
	})
}

// routePattern keeps the latency label set bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
