package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pixelfy/storage-service/internal/metrics"
)

// Metrics собирает счётчик запросов и гистограмму длительности.
// Путь нормализуется, чтобы ограничить кардинальность меток.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(rw, r)

		if rw.status == 0 {
			rw.status = http.StatusOK
		}

		path := normalizePath(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath сводит пути с параметрами к шаблонам.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/file/"):
		return "/file/*"
	case strings.HasPrefix(path, "/serve/"):
		return "/serve/*"
	default:
		return path
	}
}
