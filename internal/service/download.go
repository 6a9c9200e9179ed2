package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pixelfy/storage-service/internal/domain/model"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
	"github.com/pixelfy/storage-service/internal/storage/pathres"
)

// FileService — выдача, листинг и удаление сохранённых файлов.
type FileService struct {
	store    *filestore.FileStore
	resolver *pathres.Resolver
	idx      *index.Index
	logger   *slog.Logger
}

// NewFileService создаёт FileService.
func NewFileService(store *filestore.FileStore, resolver *pathres.Resolver, idx *index.Index, logger *slog.Logger) *FileService {
	return &FileService{
		store:    store,
		resolver: resolver,
		idx:      idx,
		logger:   logger.With(slog.String("component", "files")),
	}
}

// Get возвращает метаданные файла по file_path.
func (s *FileService) Get(filePath string) (*model.FileRecord, *StorageError) {
	if _, err := s.resolver.Within(filePath); err != nil {
		return nil, errPathViolation(err.Error())
	}
	rec := s.idx.Get(filePath)
	if rec == nil {
		return nil, errNotFound("файл не найден: " + filePath)
	}
	return rec, nil
}

// Serve отдаёт содержимое файла в HTTP-ответ.
// При inline=true файл отдаётся для отображения в браузере
// (Content-Type из метаданных), иначе как attachment с оригинальным
// именем файла. Поддерживаются range-запросы через http.ServeContent.
//
// Миниатюры не имеют собственных записей в индексе и отдаются
// напрямую с диска, только inline.
func (s *FileService) Serve(w http.ResponseWriter, r *http.Request, filePath string, inline bool) *StorageError {
	if _, err := s.resolver.Within(filePath); err != nil {
		return errPathViolation(err.Error())
	}

	rec := s.idx.Get(filePath)
	if rec == nil {
		if inline && IsThumbnailName(filepath.Base(filePath)) && s.store.FileExists(filePath) {
			return s.serveThumbnail(w, r, filePath)
		}
		return errNotFound("файл не найден: " + filePath)
	}

	f, err := s.store.ReadFile(filePath)
	if err != nil {
		// Запись есть, файла нет: расхождение устранит reconciliation
		s.logger.Warn("Файл из индекса отсутствует на диске",
			slog.String("file_path", filePath),
			slog.String("error", err.Error()),
		)
		return errNotFound("файл не найден: " + filePath)
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.MimeType)
	if !inline {
		w.Header().Set("Content-Disposition", attachmentDisposition(rec.OriginalFilename))
	}

	http.ServeContent(w, r, rec.StoredFilename, rec.UploadedAt, f)
	return nil
}

// serveThumbnail отдаёт миниатюру с диска. Миниатюры всегда JPEG.
func (s *FileService) serveThumbnail(w http.ResponseWriter, r *http.Request, filePath string) *StorageError {
	f, err := s.store.ReadFile(filePath)
	if err != nil {
		return errNotFound("миниатюра не найдена: " + filePath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errNotFound("миниатюра не найдена: " + filePath)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, filepath.Base(filePath), info.ModTime(), f)
	return nil
}

// ListResult — страница списка файлов.
type ListResult struct {
	Files  []*model.FileRecord `json:"files"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// List возвращает пагинированный список файлов с фильтрацией
// по сервису и пользователю.
func (s *FileService) List(filter index.Filter, limit, offset int) (*ListResult, *StorageError) {
	if limit < 0 || offset < 0 {
		return nil, errValidation("limit и offset не могут быть отрицательными")
	}

	files, total := s.idx.List(filter, limit, offset)
	if files == nil {
		files = []*model.FileRecord{}
	}
	return &ListResult{Files: files, Total: total, Limit: limit, Offset: offset}, nil
}

// attachmentDisposition строит заголовок Content-Disposition для
// скачивания файла под оригинальным именем. Кавычки и переводы строк
// в имени экранируются.
func attachmentDisposition(filename string) string {
	sanitized := strings.NewReplacer("\"", "", "\r", "", "\n", "").Replace(filename)
	if sanitized == "" {
		sanitized = "file"
	}
	return fmt.Sprintf("attachment; filename=%q", sanitized)
}
