// Пакет metrics — Prometheus-метрики Storage Service.
// Все коллекторы регистрируются в default registry через promauto
// и экспонируются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace — общий префикс метрик сервиса.
const namespace = "storage"

var (
	// UploadsTotal — количество загрузок по сервисам и результатам.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Общее количество загрузок файлов.",
	}, []string{"service", "result"})

	// UploadBytesTotal — объём принятых данных по сервисам.
	UploadBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_bytes_total",
		Help:      "Общий объём загруженных данных в байтах.",
	}, []string{"service"})

	// UploadDuration — длительность обработки загрузки.
	UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_duration_seconds",
		Help:      "Длительность обработки загрузки файла.",
		Buckets:   prometheus.DefBuckets,
	})

	// FilesTotal — текущее количество файлов по сервисам.
	FilesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Текущее количество файлов в хранилище.",
	}, []string{"service"})

	// BytesTotal — текущий объём данных по сервисам.
	BytesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bytes_total",
		Help:      "Текущий объём данных в хранилище в байтах.",
	}, []string{"service"})

	// DeletesTotal — количество удалений по результатам.
	DeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletes_total",
		Help:      "Общее количество удалений файлов.",
	}, []string{"result"})

	// ThumbnailsTotal — количество попыток создания миниатюр.
	ThumbnailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "thumbnails_total",
		Help:      "Общее количество попыток создания миниатюр.",
	}, []string{"result"})

	// CleanupRunsTotal — количество запусков retention sweep.
	CleanupRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_runs_total",
		Help:      "Общее количество запусков retention sweep.",
	})

	// CleanupFilesDeletedTotal — файлы, удалённые retention sweep.
	CleanupFilesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_files_deleted_total",
		Help:      "Количество файлов, удалённых retention sweep.",
	})

	// CleanupFilesFailedTotal — файлы, которые не удалось удалить.
	CleanupFilesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_files_failed_total",
		Help:      "Количество файлов, которые retention sweep не смог удалить.",
	})

	// CleanupDuration — длительность прохода retention sweep.
	CleanupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cleanup_duration_seconds",
		Help:      "Длительность прохода retention sweep.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	// ReconcileRunsTotal — количество запусков reconciliation.
	ReconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Общее количество запусков reconciliation.",
	})

	// ReconcileIssuesTotal — расхождения, найденные reconciliation.
	ReconcileIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_issues_total",
		Help:      "Расхождения между диском и метаданными по типам.",
	}, []string{"kind"})

	// HTTPRequestsTotal — количество HTTP-запросов.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Общее количество HTTP-запросов.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration — длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Длительность обработки HTTP-запросов.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)
