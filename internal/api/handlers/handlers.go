// Пакет handlers — HTTP-обработчики Storage Service.
// Обработчики разбирают запрос, вызывают сервисный слой и
// сериализуют результат; бизнес-логики здесь нет.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixelfy/storage-service/internal/api/middleware"
	"github.com/pixelfy/storage-service/internal/config"
	"github.com/pixelfy/storage-service/internal/service"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// API — агрегат HTTP-обработчиков.
type API struct {
	cfg        *config.Config
	uploads    *service.UploadService
	files      *service.FileService
	stats      *service.StatsService
	sweeper    *service.CleanupService
	reconciler *service.Reconciler
	idx        *index.Index
	logger     *slog.Logger
}

// New создаёт API.
func New(
	cfg *config.Config,
	uploads *service.UploadService,
	files *service.FileService,
	stats *service.StatsService,
	sweeper *service.CleanupService,
	reconciler *service.Reconciler,
	idx *index.Index,
	logger *slog.Logger,
) *API {
	return &API{
		cfg:        cfg,
		uploads:    uploads,
		files:      files,
		stats:      stats,
		sweeper:    sweeper,
		reconciler: reconciler,
		idx:        idx,
		logger:     logger.With(slog.String("component", "api")),
	}
}

// RegisterRoutes регистрирует маршруты на роутере.
//
// Публичные: health, metrics и выдача файлов (ссылки на файлы
// раздаются вызывающими сервисами конечным пользователям).
// Остальные операции требуют API-ключ.
func (a *API) RegisterRoutes(r chi.Router) {
	// Публичные маршруты
	r.Get("/health/live", a.HealthLive)
	r.Get("/health/ready", a.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/serve/*", a.ServeInline)
	r.Get("/file/*", a.Download)

	// Защищённые маршруты
	auth := middleware.APIKeyAuth(a.cfg.APIKey)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/upload", a.Upload)
		r.Get("/files", a.ListFiles)
		r.Delete("/file/*", a.Delete)
		r.Get("/stats", a.Stats)
		r.Post("/cleanup", a.Cleanup)
		r.Post("/maintenance/reconcile", a.Reconcile)
	})
}
