package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pixelfy/storage-service/internal/metrics"
	"github.com/pixelfy/storage-service/internal/storage/attr"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// Состояния retention sweep.
const (
	sweepStateIdle     = "idle"
	sweepStateScanning = "scanning"
	sweepStateDeleting = "deleting"
)

// CleanupService — периодическое удаление устаревших файлов.
// Кандидаты: файлы старше порога (uploaded_at раньше cutoff) и файлы
// с истёкшим индивидуальным сроком (expires_at в прошлом).
// Запускается фоново по тикеру и вручную через RunOnce.
type CleanupService struct {
	idx    *index.Index
	store  *filestore.FileStore
	logger *slog.Logger

	// interval — период между автоматическими проходами
	interval time.Duration
	// defaultDays — порог возраста по умолчанию
	defaultDays int

	mu     sync.Mutex
	state  string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CleanupResult — итог одного прохода retention sweep.
type CleanupResult struct {
	// Deleted — количество удалённых файлов
	Deleted int `json:"deleted_count"`
	// Failed — количество файлов, которые не удалось удалить
	Failed int `json:"failed_count"`
	// CutoffDays — использованный порог возраста
	CutoffDays int `json:"cutoff_days"`
}

// NewCleanupService создаёт CleanupService.
func NewCleanupService(idx *index.Index, store *filestore.FileStore, interval time.Duration, defaultDays int, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		idx:         idx,
		store:       store,
		interval:    interval,
		defaultDays: defaultDays,
		state:       sweepStateIdle,
		logger:      logger.With(slog.String("component", "cleanup")),
	}
}

// Start запускает фоновый цикл retention sweep.
func (c *CleanupService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx)

	c.logger.Info("Retention sweep запущен",
		slog.Duration("interval", c.interval),
		slog.Int("days", c.defaultDays),
	)
}

// Stop останавливает фоновый цикл и дожидается его завершения.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.logger.Info("Retention sweep остановлен")
}

// State возвращает текущее состояние sweep.
func (c *CleanupService) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// run — цикл тикера фонового sweep.
func (c *CleanupService) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := c.RunOnce(c.defaultDays)
			c.logger.Info("Проход retention sweep завершён",
				slog.Int("deleted", result.Deleted),
				slog.Int("failed", result.Failed),
			)
		}
	}
}

// RunOnce выполняет один проход retention sweep с указанным порогом
// возраста. days <= 0 означает порог по умолчанию.
// Отсутствие файла на диске при удалении не считается ошибкой:
// запись метаданных всё равно удаляется.
func (c *CleanupService) RunOnce(days int) *CleanupResult {
	if days <= 0 {
		days = c.defaultDays
	}

	start := time.Now()
	metrics.CleanupRunsTotal.Inc()

	c.setState(sweepStateScanning)
	defer c.setState(sweepStateIdle)

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -days)

	all, _ := c.idx.List(index.Filter{}, 0, 0)
	result := &CleanupResult{CutoffDays: days}

	c.setState(sweepStateDeleting)
	for _, rec := range all {
		if !rec.OlderThan(cutoff) && !rec.IsExpired(now) {
			continue
		}

		if err := c.store.DeleteFile(rec.FilePath); err != nil {
			c.logger.Error("Retention sweep: ошибка удаления файла",
				slog.String("file_path", rec.FilePath),
				slog.String("error", err.Error()),
			)
			result.Failed++
			metrics.CleanupFilesFailedTotal.Inc()
			continue
		}

		if rec.ThumbnailPath != "" {
			if err := c.store.DeleteFile(rec.ThumbnailPath); err != nil {
				c.logger.Warn("Retention sweep: не удалось удалить миниатюру",
					slog.String("thumbnail_path", rec.ThumbnailPath),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := attr.Delete(attr.AttrFilePath(c.store.FullPath(rec.FilePath))); err != nil {
			c.logger.Warn("Retention sweep: не удалось удалить attr.json",
				slog.String("file_path", rec.FilePath),
				slog.String("error", err.Error()),
			)
		}

		c.idx.Remove(rec.FilePath)
		result.Deleted++
		metrics.CleanupFilesDeletedTotal.Inc()
		metrics.FilesTotal.WithLabelValues(rec.Service).Dec()
		metrics.BytesTotal.WithLabelValues(rec.Service).Sub(float64(rec.FileSize))

		c.logger.Debug("Retention sweep: файл удалён",
			slog.String("file_id", rec.FileID),
			slog.String("file_path", rec.FilePath),
			slog.Time("uploaded_at", rec.UploadedAt),
		)
	}

	metrics.CleanupDuration.Observe(time.Since(start).Seconds())
	return result
}

func (c *CleanupService) setState(state string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
