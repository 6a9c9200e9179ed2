package service

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelfy/storage-service/internal/config"
	"github.com/pixelfy/storage-service/internal/domain/model"
	"github.com/pixelfy/storage-service/internal/metrics"
	"github.com/pixelfy/storage-service/internal/storage/attr"
	"github.com/pixelfy/storage-service/internal/storage/filestore"
	"github.com/pixelfy/storage-service/internal/storage/index"
	"github.com/pixelfy/storage-service/internal/storage/pathres"
	"github.com/pixelfy/storage-service/internal/storage/wal"
)

// defaultService — пространство имён для загрузок без явного сервиса.
const defaultService = "general"

// UploadService — приём и сохранение файлов.
// Каждая загрузка проходит через журнал (WAL): запись журнала создаётся
// до первой записи на диск и коммитится после фиксации метаданных.
// При любой ошибке все частичные артефакты удаляются.
type UploadService struct {
	cfg      *config.Config
	journal  *wal.WAL
	store    *filestore.FileStore
	resolver *pathres.Resolver
	idx      *index.Index
	thumbs   *ThumbnailDeriver
	logger   *slog.Logger
}

// NewUploadService создаёт UploadService.
func NewUploadService(
	cfg *config.Config,
	journal *wal.WAL,
	store *filestore.FileStore,
	resolver *pathres.Resolver,
	idx *index.Index,
	thumbs *ThumbnailDeriver,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		cfg:      cfg,
		journal:  journal,
		store:    store,
		resolver: resolver,
		idx:      idx,
		thumbs:   thumbs,
		logger:   logger.With(slog.String("component", "upload")),
	}
}

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток содержимого файла
	Reader io.Reader
	// OriginalFilename — имя файла от клиента
	OriginalFilename string
	// Service — сервисное пространство имён ("" = general)
	Service string
	// Folder — подпапка внутри сервиса (опционально)
	Folder string
	// UserID — идентификатор пользователя (опционально)
	UserID string
	// ExpiresAt — индивидуальный срок хранения (опционально)
	ExpiresAt *time.Time
}

// UploadResult — результат успешной загрузки.
type UploadResult struct {
	// Record — метаданные сохранённого файла
	Record *model.FileRecord
	// ThumbnailWarning — описание проблемы создания миниатюры.
	// Непустое значение не означает ошибку загрузки.
	ThumbnailWarning string
}

// Upload принимает файл и сохраняет его в хранилище.
//
// Порядок операций:
//  1. валидация имени, расширения и сервиса
//  2. генерация file_id и stored_filename
//  3. разрешение пути внутри корня хранилища
//  4. запись журнала (pending)
//  5. streaming-запись файла с SHA-256 и контролем размера
//  6. создание миниатюры (best-effort, только для изображений)
//  7. запись attr.json
//  8. регистрация в индексе
//  9. commit журнала
//
// Ошибка на любом шаге после (4) откатывает все частичные артефакты.
func (u *UploadService) Upload(params UploadParams) (*UploadResult, *StorageError) {
	start := time.Now()

	// 1. Валидация
	if params.OriginalFilename == "" {
		return nil, errValidation("имя файла не задано")
	}
	if params.Reader == nil {
		return nil, errValidation("содержимое файла не передано")
	}

	ext := strings.ToLower(filepath.Ext(params.OriginalFilename))
	// Файлы без расширения допускаются, остальные проходят allow-list
	if !u.cfg.ExtensionAllowed(ext) {
		return nil, errUnsupportedType("недопустимое расширение файла: " + ext)
	}

	svc := params.Service
	if svc == "" {
		svc = defaultService
	}
	if !u.resolver.KnownService(svc) {
		return nil, errUnknownService("неизвестный сервис: " + svc)
	}

	// 2. Идентификатор и имя на диске
	fileID := uuid.New().String()
	storedFilename := fileID + ext

	// 3. Разрешение пути
	relPath, _, err := u.resolver.Resolve(svc, params.Folder, storedFilename)
	if err != nil {
		switch {
		case errors.Is(err, pathres.ErrUnknownService):
			return nil, errUnknownService(err.Error())
		case errors.Is(err, pathres.ErrPathViolation):
			return nil, errPathViolation(err.Error())
		default:
			return nil, errWriteFailure(err.Error())
		}
	}

	// 4. Журнал: запись создаётся до первого байта на диске
	entry, err := u.journal.StartTransaction(wal.OpUpload, fileID, relPath)
	if err != nil {
		u.logger.Error("Не удалось создать запись журнала",
			slog.String("file_path", relPath),
			slog.String("error", err.Error()),
		)
		metrics.UploadsTotal.WithLabelValues(svc, "error").Inc()
		return nil, errWriteFailure("не удалось зарегистрировать загрузку в журнале")
	}

	var thumbRel string
	rollback := func() {
		if rmErr := u.store.DeleteFile(relPath); rmErr != nil {
			u.logger.Warn("Не удалось удалить частичный файл при откате",
				slog.String("file_path", relPath), slog.String("error", rmErr.Error()))
		}
		if thumbRel != "" {
			if rmErr := u.store.DeleteFile(thumbRel); rmErr != nil {
				u.logger.Warn("Не удалось удалить миниатюру при откате",
					slog.String("thumbnail_path", thumbRel), slog.String("error", rmErr.Error()))
			}
		}
		if rmErr := attr.Delete(attr.AttrFilePath(u.store.FullPath(relPath))); rmErr != nil {
			u.logger.Warn("Не удалось удалить attr.json при откате",
				slog.String("file_path", relPath), slog.String("error", rmErr.Error()))
		}
		if rbErr := u.journal.Rollback(entry.TransactionID); rbErr != nil {
			u.logger.Warn("Не удалось откатить запись журнала",
				slog.String("tx_id", entry.TransactionID), slog.String("error", rbErr.Error()))
		}
	}

	// 5. Запись содержимого
	saved, err := u.store.SaveFile(params.Reader, relPath, u.cfg.MaxFileSize)
	if err != nil {
		rollback()
		if errors.Is(err, filestore.ErrSizeExceeded) {
			metrics.UploadsTotal.WithLabelValues(svc, "too_large").Inc()
			return nil, errFileTooLarge("размер файла превышает максимум")
		}
		u.logger.Error("Ошибка записи файла",
			slog.String("file_path", relPath),
			slog.String("error", err.Error()),
		)
		metrics.UploadsTotal.WithLabelValues(svc, "error").Inc()
		return nil, errWriteFailure("не удалось сохранить файл")
	}

	// 6. Миниатюра: только изображения, ошибка не фатальна
	var thumbWarning string
	if model.IsImageExtension(ext) {
		thumbRel, err = u.thumbs.Derive(relPath, fileID)
		if err != nil {
			thumbWarning = "миниатюра не создана: " + err.Error()
			thumbRel = ""
			u.logger.Warn("Не удалось создать миниатюру",
				slog.String("file_id", fileID),
				slog.String("error", err.Error()),
			)
			metrics.ThumbnailsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.ThumbnailsTotal.WithLabelValues("success").Inc()
		}
	}

	rec := &model.FileRecord{
		FileID:           fileID,
		OriginalFilename: params.OriginalFilename,
		StoredFilename:   storedFilename,
		Service:          svc,
		Folder:           params.Folder,
		FilePath:         relPath,
		FileSize:         saved.Size,
		FileHash:         saved.Checksum,
		MimeType:         model.MimeTypeByExtension(ext),
		UserID:           params.UserID,
		ThumbnailPath:    thumbRel,
		UploadedAt:       time.Now().UTC(),
		ExpiresAt:        params.ExpiresAt,
	}

	// 7. Метаданные: attr.json — источник истины
	if err := attr.Write(attr.AttrFilePath(u.store.FullPath(relPath)), rec); err != nil {
		u.logger.Error("Ошибка записи метаданных",
			slog.String("file_path", relPath),
			slog.String("error", err.Error()),
		)
		rollback()
		metrics.UploadsTotal.WithLabelValues(svc, "error").Inc()
		return nil, errWriteFailure("не удалось сохранить метаданные")
	}

	// 8. Индекс
	if err := u.idx.Add(rec); err != nil {
		rollback()
		if errors.Is(err, index.ErrDuplicatePath) {
			metrics.UploadsTotal.WithLabelValues(svc, "duplicate").Inc()
			return nil, errDuplicatePath("файл с таким путём уже существует: " + relPath)
		}
		metrics.UploadsTotal.WithLabelValues(svc, "error").Inc()
		return nil, errWriteFailure("не удалось зарегистрировать файл в индексе")
	}

	// 9. Commit. Файл и метаданные уже долговечны: ошибка commit
	// не отменяет загрузку, pending запись разрешится при recovery.
	if err := u.journal.Commit(entry.TransactionID); err != nil {
		u.logger.Warn("Не удалось закоммитить запись журнала",
			slog.String("tx_id", entry.TransactionID),
			slog.String("error", err.Error()),
		)
	}

	metrics.UploadsTotal.WithLabelValues(svc, "success").Inc()
	metrics.UploadBytesTotal.WithLabelValues(svc).Add(float64(saved.Size))
	metrics.FilesTotal.WithLabelValues(svc).Inc()
	metrics.BytesTotal.WithLabelValues(svc).Add(float64(saved.Size))
	metrics.UploadDuration.Observe(time.Since(start).Seconds())

	u.logger.Info("Файл загружен",
		slog.String("file_id", fileID),
		slog.String("file_path", relPath),
		slog.String("service", svc),
		slog.Int64("size", saved.Size),
		slog.String("hash", saved.Checksum),
	)

	return &UploadResult{Record: rec, ThumbnailWarning: thumbWarning}, nil
}
