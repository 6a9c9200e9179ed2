package service

import (
	"log/slog"

	"github.com/pixelfy/storage-service/internal/metrics"
	"github.com/pixelfy/storage-service/internal/storage/attr"
)

// Delete удаляет файл, его миниатюру и метаданные.
//
// Порядок: сначала файлы на диске, затем запись индекса. Если процесс
// упадёт между шагами, reconciliation удалит осиротевшие метаданные.
// Отсутствие файла на диске при существующей записи не считается
// ошибкой: запись всё равно удаляется.
func (s *FileService) Delete(filePath string) *StorageError {
	if _, err := s.resolver.Within(filePath); err != nil {
		return errPathViolation(err.Error())
	}

	rec := s.idx.Get(filePath)
	if rec == nil {
		return errNotFound("файл не найден: " + filePath)
	}

	if err := s.store.DeleteFile(filePath); err != nil {
		s.logger.Error("Ошибка удаления файла",
			slog.String("file_path", filePath),
			slog.String("error", err.Error()),
		)
		metrics.DeletesTotal.WithLabelValues("error").Inc()
		return errWriteFailure("не удалось удалить файл")
	}

	if rec.ThumbnailPath != "" {
		if err := s.store.DeleteFile(rec.ThumbnailPath); err != nil {
			// Осиротевшую миниатюру подберёт reconciliation
			s.logger.Warn("Не удалось удалить миниатюру",
				slog.String("thumbnail_path", rec.ThumbnailPath),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := attr.Delete(attr.AttrFilePath(s.store.FullPath(filePath))); err != nil {
		s.logger.Warn("Не удалось удалить attr.json",
			slog.String("file_path", filePath),
			slog.String("error", err.Error()),
		)
	}

	s.idx.Remove(filePath)

	metrics.DeletesTotal.WithLabelValues("success").Inc()
	metrics.FilesTotal.WithLabelValues(rec.Service).Dec()
	metrics.BytesTotal.WithLabelValues(rec.Service).Sub(float64(rec.FileSize))

	s.logger.Info("Файл удалён",
		slog.String("file_id", rec.FileID),
		slog.String("file_path", filePath),
		slog.String("service", rec.Service),
	)
	return nil
}
