package httpapi

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorlabs/twinengine/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes through so the websocket upgrade keeps working behind the
// logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// withRequestLogging logs method, path, status, and latency per request.
// Message content is never logged; that is part of the privacy posture the
// retention endpoints advertise.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()

		next.ServeHTTP(recorder, r)

		logger.Debug("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"latency_ms", time.Since(started).Milliseconds(),
		)
	})
}
