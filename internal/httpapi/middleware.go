package httpapi

import (
	"bufio"
	"bytes"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const maxLoggedErrorBody = 512

// statusRecorder captures the status and a bounded copy of the body so error
// responses can be logged.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				maxLogBytes:    maxLoggedErrorBody,
			}

			next.ServeHTTP(recorder, r)

			reqID := middleware.GetReqID(r.Context())
			if recorder.statusCode >= http.StatusBadRequest {
				suffix := ""
				if recorder.truncated {
					suffix = "...(truncated)"
				}
				logger.Printf("[%s] %s %s -> %d (%s) body=%s%s", reqID, r.Method, r.URL.Path, recorder.statusCode, time.Since(start), bytes.TrimSpace(recorder.logBody.Bytes()), suffix)
				return
			}
			logger.Printf("[%s] %s %s -> %d %dB (%s)", reqID, r.Method, r.URL.Path, recorder.statusCode, recorder.bytesWritten, time.Since(start))
		})
	}
}
