package service

import (
	"log/slog"
	"time"

	"github.com/pixelfy/storage-service/internal/config"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// StatsService — агрегированная статистика хранилища.
type StatsService struct {
	cfg    *config.Config
	idx    *index.Index
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewStatsService создаёт StatsService.
func NewStatsService(cfg *config.Config, idx *index.Index, store *filestore.FileStore, logger *slog.Logger) *StatsService {
	return &StatsService{
		cfg:    cfg,
		idx:    idx,
		store:  store,
		logger: logger.With(slog.String("component", "stats")),
	}
}

// DiskInfo — ёмкость файловой системы корня хранилища.
type DiskInfo struct {
	TotalBytes     int64 `json:"total_bytes"`
	UsedBytes      int64 `json:"used_bytes"`
	AvailableBytes int64 `json:"available_bytes"`
}

// StatsReport — агрегированная статистика хранилища.
// Сервисы без файлов присутствуют с нулевыми значениями.
type StatsReport struct {
	Services    map[string]index.ServiceUsage `json:"services"`
	Total       index.ServiceUsage            `json:"total"`
	Disk        *DiskInfo                     `json:"disk,omitempty"`
	GeneratedAt time.Time                     `json:"generated_at"`
}

// Stats возвращает статистику по всем сервисам и диску.
// Недоступность информации о диске не считается ошибкой.
func (s *StatsService) Stats() (*StatsReport, *StorageError) {
	perService, total := s.idx.Usage()

	// Сконфигурированные сервисы всегда присутствуют в отчёте
	services := make(map[string]index.ServiceUsage, len(s.cfg.Services))
	for _, svc := range s.cfg.Services {
		services[svc] = perService[svc]
	}
	// Сервисы, оставшиеся на диске после смены конфигурации
	for svc, usage := range perService {
		if _, ok := services[svc]; !ok {
			services[svc] = usage
		}
	}

	report := &StatsReport{
		Services:    services,
		Total:       total,
		GeneratedAt: time.Now().UTC(),
	}

	totalBytes, usedBytes, availBytes, err := s.store.DiskUsage()
	if err != nil {
		s.logger.Warn("Не удалось получить информацию о диске",
			slog.String("error", err.Error()),
		)
	} else {
		report.Disk = &DiskInfo{
			TotalBytes:     totalBytes,
			UsedBytes:      usedBytes,
			AvailableBytes: availBytes,
		}
	}

	return report, nil
}
