// Пакет apierr — сериализация ошибок API.
// Все ошибки возвращаются в едином формате:
//
//	{"error": {"code": "NOT_FOUND", "message": "файл не найден"}}
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pixelfy/storage-service/internal/service"
)

// errorBody — тело ответа с ошибкой.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write сериализует ошибку в HTTP-ответ. Доменные ошибки
// (*service.StorageError) сохраняют свой статус и код, всё остальное
// превращается в 500 INTERNAL_ERROR без утечки деталей.
func Write(w http.ResponseWriter, err error) {
	var serr *service.StorageError
	if errors.As(err, &serr) {
		WriteCode(w, serr.StatusCode, serr.Code, serr.Message)
		return
	}
	WriteCode(w, http.StatusInternalServerError, service.CodeInternalError, "внутренняя ошибка сервера")
}

// WriteCode пишет ошибку с явным статусом, кодом и сообщением.
func WriteCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// WriteJSON сериализует успешный ответ.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
