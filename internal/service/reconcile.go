package service

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pixelfy/storage-service/internal/metrics"
	"github.com/pixelfy/storage-service/internal/storage/attr"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// ErrReconcileInProgress — reconciliation уже выполняется.
var ErrReconcileInProgress = errors.New("reconciliation уже выполняется")

// Reconciler — сверка содержимого диска с метаданными.
// Обнаруживает и по возможности устраняет расхождения:
//   - attr.json без файла данных: метаданные удаляются
//   - файл данных без attr.json: фиксируется в отчёте
//   - миниатюра без записи-владельца: удаляется
//   - несовпадение размера файла с метаданными: фиксируется в отчёте
//
// После устранения расхождений индекс пересобирается с диска.
type Reconciler struct {
	idx    *index.Index
	store  *filestore.FileStore
	logger *slog.Logger

	mu        sync.Mutex
	inProcess bool
}

// ReconcileReport — отчёт одного прохода reconciliation.
type ReconcileReport struct {
	// RemovedRecords — attr.json без файла данных (удалены)
	RemovedRecords []string `json:"removed_records"`
	// OrphanFiles — файлы данных без attr.json (только отчёт)
	OrphanFiles []string `json:"orphan_files"`
	// RemovedThumbnails — миниатюры без записи-владельца (удалены)
	RemovedThumbnails []string `json:"removed_thumbnails"`
	// SizeMismatches — файлы с размером, отличным от метаданных (только отчёт)
	SizeMismatches []string `json:"size_mismatches"`
	// Duration — длительность прохода
	Duration time.Duration `json:"duration_ns"`
}

// Issues возвращает общее количество найденных расхождений.
func (r *ReconcileReport) Issues() int {
	return len(r.RemovedRecords) + len(r.OrphanFiles) + len(r.RemovedThumbnails) + len(r.SizeMismatches)
}

// NewReconciler создаёт Reconciler.
func NewReconciler(idx *index.Index, store *filestore.FileStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		idx:    idx,
		store:  store,
		logger: logger.With(slog.String("component", "reconcile")),
	}
}

// RunOnce выполняет один проход reconciliation.
// Одновременно может выполняться только один проход.
func (r *Reconciler) RunOnce() (*ReconcileReport, error) {
	r.mu.Lock()
	if r.inProcess {
		r.mu.Unlock()
		return nil, ErrReconcileInProgress
	}
	r.inProcess = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inProcess = false
		r.mu.Unlock()
	}()

	start := time.Now()
	metrics.ReconcileRunsTotal.Inc()

	report := &ReconcileReport{
		RemovedRecords:    []string{},
		OrphanFiles:       []string{},
		RemovedThumbnails: []string{},
		SizeMismatches:    []string{},
	}

	root := r.store.Root()

	// Пути миниатюр, принадлежащих живым записям
	ownedThumbs := make(map[string]bool)
	records, _ := r.idx.List(index.Filter{}, 0, 0)
	for _, rec := range records {
		if rec.ThumbnailPath != "" {
			ownedThumbs[rec.ThumbnailPath] = true
		}
	}

	changed := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			// Служебные директории (.wal) не сверяются
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		name := d.Name()

		switch {
		case strings.HasSuffix(name, ".tmp"):
			// Незавершённые временные файлы убирает WAL recovery
			return nil

		case attr.IsAttrFile(name):
			dataRel := attr.DataFilePathFromAttr(rel)
			if r.store.FileExists(dataRel) {
				return nil
			}
			// Метаданные без файла: запись недействительна
			if rmErr := attr.Delete(path); rmErr != nil {
				r.logger.Error("Reconciliation: не удалось удалить attr.json",
					slog.String("path", rel), slog.String("error", rmErr.Error()))
				return nil
			}
			r.idx.Remove(dataRel)
			report.RemovedRecords = append(report.RemovedRecords, dataRel)
			metrics.ReconcileIssuesTotal.WithLabelValues("missing_file").Inc()
			changed = true
			return nil

		case IsThumbnailName(name):
			if ownedThumbs[rel] {
				return nil
			}
			// Миниатюра без владельца
			if rmErr := r.store.DeleteFile(rel); rmErr != nil {
				r.logger.Warn("Reconciliation: не удалось удалить осиротевшую миниатюру",
					slog.String("path", rel), slog.String("error", rmErr.Error()))
				return nil
			}
			report.RemovedThumbnails = append(report.RemovedThumbnails, rel)
			metrics.ReconcileIssuesTotal.WithLabelValues("orphan_thumbnail").Inc()
			return nil

		default:
			rec := r.idx.Get(rel)
			if rec == nil {
				// Файл без метаданных: не удаляем, решение за оператором
				report.OrphanFiles = append(report.OrphanFiles, rel)
				metrics.ReconcileIssuesTotal.WithLabelValues("orphan_file").Inc()
				return nil
			}
			size, sizeErr := r.store.FileSize(rel)
			if sizeErr == nil && size != rec.FileSize {
				report.SizeMismatches = append(report.SizeMismatches, rel)
				metrics.ReconcileIssuesTotal.WithLabelValues("size_mismatch").Inc()
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	// Пересборка индекса после устранения расхождений
	if changed {
		if rebuildErr := r.idx.BuildFromDir(root); rebuildErr != nil {
			r.logger.Error("Reconciliation: ошибка пересборки индекса",
				slog.String("error", rebuildErr.Error()))
		}
	}

	report.Duration = time.Since(start)

	r.logger.Info("Reconciliation завершён",
		slog.Int("removed_records", len(report.RemovedRecords)),
		slog.Int("orphan_files", len(report.OrphanFiles)),
		slog.Int("removed_thumbnails", len(report.RemovedThumbnails)),
		slog.Int("size_mismatches", len(report.SizeMismatches)),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}
