package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authHandler(key string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(key)(next)
}

// TestAPIKeyAuth проверяет аутентификацию по Bearer-токену.
func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"без Bearer", "secret-key", http.StatusUnauthorized},
		{"пустой токен", "Bearer ", http.StatusUnauthorized},
		{"неверный ключ", "Bearer wrong-key", http.StatusUnauthorized},
		{"верный ключ", "Bearer secret-key", http.StatusOK},
	}

	handler := authHandler("secret-key")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/stats", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			handler.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("статус: ожидался %d, получен %d", tt.status, w.Code)
			}
			if tt.status == http.StatusUnauthorized && !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
				t.Errorf("тело ответа должно содержать код UNAUTHORIZED: %s", w.Body.String())
			}
		})
	}
}
