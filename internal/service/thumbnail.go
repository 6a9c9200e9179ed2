package service

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Декодер WEBP не входит в imaging, регистрируем отдельно.
	_ "golang.org/x/image/webp"

	"github.com/pixelfy/storage-service/internal/storage/filestore"
)

// Параметры миниатюр: максимальный размер 300x300, JPEG качество 85.
const (
	thumbPrefix  = "thumb_"
	thumbMaxSize = 300
	thumbQuality = 85
)

// ThumbnailDeriver создаёт JPEG-миниатюры для изображений.
// Миниатюра кладётся рядом с оригиналом под именем thumb_{file_id}.jpg.
// Создание миниатюры никогда не блокирует загрузку: ошибка
// декодирования или записи означает лишь отсутствие миниатюры.
type ThumbnailDeriver struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewThumbnailDeriver создаёт ThumbnailDeriver.
func NewThumbnailDeriver(store *filestore.FileStore, logger *slog.Logger) *ThumbnailDeriver {
	return &ThumbnailDeriver{
		store:  store,
		logger: logger.With(slog.String("component", "thumbnails")),
	}
}

// ThumbnailRelPath возвращает относительный путь миниатюры для файла
// по относительному пути оригинала и file_id.
func ThumbnailRelPath(fileRelPath, fileID string) string {
	return filepath.Join(filepath.Dir(fileRelPath), thumbPrefix+fileID+".jpg")
}

// IsThumbnailName проверяет, является ли имя файла миниатюрой.
func IsThumbnailName(name string) bool {
	return strings.HasPrefix(name, thumbPrefix)
}

// Derive создаёт миниатюру для сохранённого изображения.
// Возвращает относительный путь миниатюры.
//
// Алгоритм: пропорциональное уменьшение до 300x300 (без увеличения),
// наложение на белый фон для изображений с прозрачностью,
// кодирование в JPEG с качеством 85. Запись атомарная.
func (d *ThumbnailDeriver) Derive(fileRelPath, fileID string) (string, error) {
	src, err := imaging.Open(d.store.FullPath(fileRelPath))
	if err != nil {
		return "", fmt.Errorf("не удалось декодировать изображение %s: %w", fileRelPath, err)
	}

	// Пропорциональное уменьшение. Fit не увеличивает изображения,
	// которые уже помещаются в 300x300.
	resized := imaging.Fit(src, thumbMaxSize, thumbMaxSize, imaging.Lanczos)

	// JPEG не поддерживает прозрачность: накладываем на белый фон
	bounds := resized.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), image.White.C)
	flat = imaging.OverlayCenter(flat, resized, 1.0)

	thumbRel := ThumbnailRelPath(fileRelPath, fileID)
	if err := d.writeJPEG(d.store.FullPath(thumbRel), flat); err != nil {
		return "", err
	}

	d.logger.Debug("Миниатюра создана",
		slog.String("file_id", fileID),
		slog.String("thumbnail_path", thumbRel),
	)
	return thumbRel, nil
}

// writeJPEG атомарно записывает изображение в JPEG-файл.
func (d *ThumbnailDeriver) writeJPEG(absPath string, img image.Image) error {
	tmpPath := absPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла миниатюры: %w", err)
	}

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка кодирования миниатюры: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync миниатюры: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла миниатюры: %w", err)
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования миниатюры: %w", err)
	}

	return nil
}
