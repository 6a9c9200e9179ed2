// Пакет middleware — HTTP-middleware Storage Service:
// аутентификация по API-ключу, логирование запросов и метрики.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/pixelfy/storage-service/internal/api/apierr"
)

// APIKeyAuth проверяет заголовок Authorization: Bearer {key}.
// Сравнение ключей выполняется за постоянное время.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				apierr.WriteCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется API-ключ")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				apierr.WriteCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "недействительный API-ключ")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
