package handlers

import (
	"net/http"

	"github.com/pixelfy/storage-service/internal/api/apierr"
	"github.com/pixelfy/storage-service/internal/config"
)

// Stats — GET /stats: агрегированная статистика хранилища.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	report, serr := a.stats.Stats()
	if serr != nil {
		apierr.Write(w, serr)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, report)
}

// HealthLive — GET /health/live: процесс жив.
func (a *API) HealthLive(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

// HealthReady — GET /health/ready: сервис готов принимать запросы.
// Готовность означает построенный индекс метаданных.
func (a *API) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !a.idx.IsReady() {
		apierr.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "index not ready"})
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
