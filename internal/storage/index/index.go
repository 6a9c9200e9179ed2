// Пакет index — потокобезопасный in-memory индекс метаданных файлов.
//
// Индекс строится при старте из attr.json файлов (BuildFromDir)
// и обновляется синхронно при операциях записи (Add, Remove).
// Обеспечивает быструю фильтрацию, пагинацию и агрегацию статистики
// без обращения к диску.
//
// Не персистентный: при рестарте пересобирается из attr.json.
package index

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/pixelfy/storage-service/internal/domain/model"
	"github.com/pixelfy/storage-service/internal/storage/attr"
)

// ErrDuplicatePath — запись с таким file_path уже существует.
var ErrDuplicatePath = errors.New("file_path уже существует")

// Index — потокобезопасный in-memory индекс метаданных.
// Использует sync.RWMutex для конкурентного чтения и
// эксклюзивной записи. Ключ — file_path (естественный ключ записи).
type Index struct {
	mu     sync.RWMutex
	files  map[string]*model.FileRecord // file_path → record
	ready  bool                         // индекс построен и готов
	logger *slog.Logger
}

// Filter — параметры фильтрации списка файлов.
type Filter struct {
	// Service — фильтр по сервису ("" = без фильтра)
	Service string
	// UserID — фильтр по пользователю ("" = без фильтра)
	UserID string
}

// ServiceUsage — агрегированная статистика одного сервиса.
type ServiceUsage struct {
	FileCount  int   `json:"file_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// New создаёт пустой индекс. Для заполнения вызовите BuildFromDir.
func New(logger *slog.Logger) *Index {
	return &Index{
		files:  make(map[string]*model.FileRecord),
		logger: logger.With(slog.String("component", "index")),
	}
}

// BuildFromDir строит индекс из attr.json файлов в корне хранилища.
// Вызывается при старте сервера. Заменяет текущее содержимое индекса.
// После успешного построения индекс помечается как ready.
func (idx *Index) BuildFromDir(root string) error {
	records, err := attr.ScanDir(root)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.files = make(map[string]*model.FileRecord, len(records))
	for _, rec := range records {
		idx.files[rec.FilePath] = rec
	}
	idx.ready = true

	idx.logger.Info("Индекс метаданных построен",
		slog.Int("files", len(idx.files)),
		slog.String("root", root),
	)

	return nil
}

// IsReady возвращает true, если индекс построен и готов к использованию.
func (idx *Index) IsReady() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// Add добавляет запись в индекс.
// Возвращает ErrDuplicatePath, если file_path уже занят.
func (idx *Index) Add(rec *model.FileRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.files[rec.FilePath]; ok {
		return ErrDuplicatePath
	}

	// Создаём копию, чтобы избежать data race при внешних изменениях
	copied := *rec
	idx.files[rec.FilePath] = &copied
	return nil
}

// Remove удаляет запись из индекса по file_path.
// Возвращает true, если запись была найдена и удалена.
func (idx *Index) Remove(filePath string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.files[filePath]; !ok {
		return false
	}
	delete(idx.files, filePath)
	return true
}

// Get возвращает запись по file_path.
// Возвращает nil, если запись не найдена.
func (idx *Index) Get(filePath string) *model.FileRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, ok := idx.files[filePath]
	if !ok {
		return nil
	}

	// Возвращаем копию для потокобезопасности
	copied := *rec
	return &copied
}

// List возвращает пагинированный список записей с опциональной
// фильтрацией по сервису и пользователю.
// Параметры:
//   - filter: фильтры (пустые поля = без фильтра)
//   - limit: максимальное количество элементов (0 = все)
//   - offset: смещение от начала списка
//
// Возвращает срез записей и общее количество (с учётом фильтра).
// Порядок стабильный: по дате загрузки (новые первые), при равенстве —
// по file_id.
func (idx *Index) List(filter Filter, limit, offset int) ([]*model.FileRecord, int) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var filtered []*model.FileRecord
	for _, rec := range idx.files {
		if filter.Service != "" && rec.Service != filter.Service {
			continue
		}
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		copied := *rec
		filtered = append(filtered, &copied)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].UploadedAt.Equal(filtered[j].UploadedAt) {
			return filtered[i].UploadedAt.After(filtered[j].UploadedAt)
		}
		return filtered[i].FileID < filtered[j].FileID
	})

	total := len(filtered)

	if offset >= total {
		return nil, total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return filtered[offset:end], total
}

// Count возвращает общее количество записей в индексе.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// Usage возвращает агрегированную статистику по сервисам и итог.
// Чисто читающая операция; пустой индекс даёт нулевые значения.
func (idx *Index) Usage() (map[string]ServiceUsage, ServiceUsage) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	perService := make(map[string]ServiceUsage)
	var total ServiceUsage

	for _, rec := range idx.files {
		u := perService[rec.Service]
		u.FileCount++
		u.TotalBytes += rec.FileSize
		perService[rec.Service] = u

		total.FileCount++
		total.TotalBytes += rec.FileSize
	}

	return perService, total
}
