package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// errorBodyCap bounds how much of a failed response gets buffered for the
// log line.
const errorBodyCap = 2048

// Logging emits one structured line per request and echoes the request ID on
// X-Request-ID. Failed responses get their error envelope fields attached so
// the log line alone is enough to reproduce the call.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		started := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", clientIP(r),
		}

		if ww.status >= 400 {
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			attrs = append(attrs, errorAttrs(ww.errBody.Bytes())...)
		}

		switch {
		case ww.status >= 500:
			slog.Error("request", attrs...)
		case ww.status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	})
}

// errorAttrs pulls the envelope's error block out of a failed response body.
func errorAttrs(body []byte) []any {
	if len(body) == 0 {
		return nil
	}

	var parsed struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return nil
	}

	attrs := []any{"error_code", parsed.Error.Code, "error_message", parsed.Error.Message}
	if parsed.Error.Details != "" {
		attrs = append(attrs, "error_details", parsed.Error.Details)
	}
	return attrs
}

// statusWriter records the status code and buffers failed response bodies up
// to errorBodyCap.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	errBody     bytes.Buffer
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	if sw.wroteHeader {
		return
	}
	sw.status = statusCode
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status >= 400 && sw.errBody.Len() < errorBodyCap {
		chunk := b
		if remain := errorBodyCap - sw.errBody.Len(); len(chunk) > remain {
			chunk = chunk[:remain]
		}
		sw.errBody.Write(chunk)
	}
	return sw.ResponseWriter.Write(b)
}
