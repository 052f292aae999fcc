package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/signature"
	"github.com/ericfisherdev/agentmarket/internal/metrics"
)

// statusWriter records the status code a handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// routeLabel returns the mux pattern that served r. The mux sets
// r.Pattern on the request it was handed, so it is only known after
// ServeHTTP returns.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return metrics.RouteUnmatched
	}
	return r.Pattern
}

// loggingMiddleware logs each request with its route and claimed caller and
// records the request counter and latency histogram. The caller is the raw
// header value; it is only trusted after the handler verifies the signature.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		route := routeLabel(r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", sw.status,
			"duration", elapsed.Round(time.Microsecond),
		}
		if caller := r.Header.Get(signature.HeaderCaller); caller != "" {
			attrs = append(attrs, "caller", caller)
		}
		logger.Info("http request", attrs...)
	})
}

// recoveryMiddleware turns a handler panic into a 500 with the internal
// error code.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"route", routeLabel(r),
				)
				metrics.HTTPPanics.WithLabelValues(routeLabel(r)).Inc()
				writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
