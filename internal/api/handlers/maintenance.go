package handlers

import (
	"errors"
	"net/http"

	"github.com/pixelfy/storage-service/internal/api/apierr"
	"github.com/pixelfy/storage-service/internal/service"
)

// Cleanup — POST /cleanup?days=N: ручной запуск retention sweep.
// days не задан или 0 — используется порог из конфигурации.
func (a *API) Cleanup(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 0)
	if err != nil || days < 0 {
		apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "days: ожидается неотрицательное целое число")
		return
	}

	result := a.sweeper.RunOnce(days)
	apierr.WriteJSON(w, http.StatusOK, result)
}

// Reconcile — POST /maintenance/reconcile: сверка диска с метаданными.
func (a *API) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := a.reconciler.RunOnce()
	if err != nil {
		if errors.Is(err, service.ErrReconcileInProgress) {
			apierr.WriteCode(w, http.StatusConflict, "RECONCILE_IN_PROGRESS", err.Error())
			return
		}
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, report)
}
