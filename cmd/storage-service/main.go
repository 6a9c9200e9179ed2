// Storage Service — файловое хранилище для сервисов Pixelfy.
// Принимает файлы по HTTP, раскладывает их по сервисным пространствам
// имён на локальном диске, создаёт миниатюры изображений и удаляет
// устаревшие файлы по расписанию.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pixelfy/storage-service/internal/api/handlers"
	"github.com/pixelfy/storage-service/internal/config"
	"github.com/pixelfy/storage-service/internal/server"
	"github.com/pixelfy/storage-service/internal/service"
	"github.com/pixelfy/storage-service/internal/storage/attr"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
	"github.com/pixelfy/storage-service/internal/storage/pathres"
	"github.com/pixelfy/storage-service/internal/storage/wal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Storage Service запускается",
		slog.String("version", config.Version),
		slog.String("data_dir", cfg.DataDir),
		slog.Int("port", cfg.Port),
	)

	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver, err := pathres.New(cfg.DataDir, cfg.Services)
	if err != nil {
		logger.Error("Ошибка инициализации резолвера путей", slog.String("error", err.Error()))
		os.Exit(1)
	}

	journal, err := wal.New(cfg.WALDir, logger)
	if err != nil {
		logger.Error("Ошибка инициализации журнала", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Recovery: разрешаем загрузки, прерванные падением процесса
	if err := recoverPending(journal, store, logger); err != nil {
		logger.Error("Ошибка восстановления журнала", slog.String("error", err.Error()))
		os.Exit(1)
	}

	idx := index.New(logger)
	if err := idx.BuildFromDir(store.Root()); err != nil {
		logger.Error("Ошибка построения индекса", slog.String("error", err.Error()))
		os.Exit(1)
	}

	thumbs := service.NewThumbnailDeriver(store, logger)
	uploads := service.NewUploadService(cfg, journal, store, resolver, idx, thumbs, logger)
	files := service.NewFileService(store, resolver, idx, logger)
	stats := service.NewStatsService(cfg, idx, store, logger)
	sweeper := service.NewCleanupService(idx, store, cfg.CleanupInterval, cfg.CleanupDays, logger)
	reconciler := service.NewReconciler(idx, store, logger)

	if cfg.AutoCleanupEnabled {
		sweeper.Start(context.Background())
		defer sweeper.Stop()
	}

	api := handlers.New(cfg, uploads, files, stats, sweeper, reconciler, idx, logger)
	srv := server.New(cfg, api, logger)

	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Storage Service остановлен")
}

// recoverPending разрешает незавершённые транзакции журнала.
// Если attr.json транзакции существует, загрузка фактически
// завершилась и запись просто коммитится. Иначе все частичные
// артефакты (файл, миниатюра, attr.json) удаляются.
func recoverPending(journal *wal.WAL, store *filestore.FileStore, logger *slog.Logger) error {
	pending, err := journal.RecoverPending()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		attrPath := attr.AttrFilePath(store.FullPath(entry.FilePath))
		if _, statErr := os.Stat(attrPath); statErr == nil {
			logger.Info("Recovery: загрузка завершилась, коммит записи журнала",
				slog.String("tx_id", entry.TransactionID),
				slog.String("file_path", entry.FilePath),
			)
			if err := journal.Commit(entry.TransactionID); err != nil {
				logger.Warn("Recovery: не удалось закоммитить запись",
					slog.String("tx_id", entry.TransactionID),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		logger.Warn("Recovery: откат незавершённой загрузки",
			slog.String("tx_id", entry.TransactionID),
			slog.String("file_path", entry.FilePath),
		)

		if err := store.DeleteFile(entry.FilePath); err != nil {
			logger.Error("Recovery: не удалось удалить частичный файл",
				slog.String("file_path", entry.FilePath),
				slog.String("error", err.Error()),
			)
		}
		thumbRel := service.ThumbnailRelPath(entry.FilePath, entry.FileID)
		if err := store.DeleteFile(thumbRel); err != nil {
			logger.Warn("Recovery: не удалось удалить миниатюру",
				slog.String("thumbnail_path", thumbRel),
				slog.String("error", err.Error()),
			)
		}
		if err := journal.Rollback(entry.TransactionID); err != nil {
			logger.Error("Recovery: не удалось откатить запись журнала",
				slog.String("tx_id", entry.TransactionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(pending) > 0 {
		logger.Info("Recovery завершён", slog.Int("transactions", len(pending)))
	}
	return nil
}
