package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseWriter перехватывает статус и размер ответа для логирования.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// RequestLogger логирует каждый HTTP-запрос с методом, путём,
// статусом, размером ответа и длительностью. Уровень зависит от
// статуса: 5xx — error, 4xx — warn, остальное — info.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			if rw.status == 0 {
				rw.status = http.StatusOK
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Int("size", rw.size),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
			}

			switch {
			case rw.status >= 500:
				logger.Error("HTTP запрос", attrs...)
			case rw.status >= 400:
				logger.Warn("HTTP запрос", attrs...)
			default:
				logger.Info("HTTP запрос", attrs...)
			}
		})
	}
}
