// Пакет wal — файловый журнал загрузок (Write-Ahead Log).
// Гарантирует отсутствие осиротевших частичных загрузок: сначала
// создаётся запись журнала со статусом pending, затем выполняется
// запись файла и метаданных, затем журнал коммитится или откатывается.
// При рестарте pending записи восстанавливаются: частичные артефакты
// удаляются с диска.
package wal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WAL — файловый журнал незавершённых операций.
type WAL struct {
	// dir — директория хранения записей журнала (STORAGE_WAL_DIR)
	dir string
	// mu — мьютекс для потокобезопасности
	mu sync.Mutex
	// logger — логгер
	logger *slog.Logger
}

// New создаёт новый журнал. Проверяет и создаёт директорию,
// если она не существует. Возвращает ошибку при проблемах с FS.
func New(dir string, logger *slog.Logger) (*WAL, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию журнала %s: %w", dir, err)
	}

	// Проверяем доступность на запись через temp файл
	testFile := filepath.Join(dir, ".wal_write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o640); err != nil {
		return nil, fmt.Errorf("директория журнала %s недоступна для записи: %w", dir, err)
	}
	os.Remove(testFile)

	return &WAL{
		dir:    dir,
		logger: logger.With(slog.String("component", "wal")),
	}, nil
}

// StartTransaction создаёт новую запись журнала со статусом pending.
// Возвращает Entry с уникальным TransactionID (UUID v4).
// Запись сохраняется атомарно: temp файл → fsync → rename.
func (w *WAL) StartTransaction(op OperationType, fileID, filePath string) (*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry := &Entry{
		TransactionID: uuid.New().String(),
		Operation:     op,
		Status:        StatusPending,
		FileID:        fileID,
		FilePath:      filePath,
		StartedAt:     time.Now().UTC(),
	}

	if err := w.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("не удалось создать запись журнала: %w", err)
	}

	w.logger.Debug("Транзакция начата",
		slog.String("tx_id", entry.TransactionID),
		slog.String("operation", string(entry.Operation)),
		slog.String("file_path", entry.FilePath),
	)

	return entry, nil
}

// Commit помечает транзакцию как успешно завершённую и удаляет
// запись журнала: завершённой операции нечего восстанавливать.
func (w *WAL) Commit(txID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.readEntry(txID)
	if err != nil {
		return fmt.Errorf("не удалось прочитать запись журнала %s: %w", txID, err)
	}

	if entry.Status != StatusPending {
		return fmt.Errorf("запись журнала %s имеет статус %s, ожидается %s", txID, entry.Status, StatusPending)
	}

	if err := os.Remove(w.entryPath(txID)); err != nil {
		return fmt.Errorf("не удалось удалить запись журнала %s: %w", txID, err)
	}

	w.logger.Debug("Транзакция закоммичена", slog.String("tx_id", txID))
	return nil
}

// Rollback помечает транзакцию как откаченную и удаляет запись журнала.
// Удаление частичных артефактов с диска — задача вызывающего кода.
// Возвращает nil, если запись уже отсутствует.
func (w *WAL) Rollback(txID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := os.Remove(w.entryPath(txID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("не удалось удалить запись журнала %s: %w", txID, err)
	}

	w.logger.Debug("Транзакция откачена", slog.String("tx_id", txID))
	return nil
}

// RecoverPending возвращает все pending записи журнала.
// Вызывается при старте: найденные записи означают загрузки,
// прерванные падением процесса. Вызывающий код удаляет их артефакты
// и затем вызывает Rollback.
func (w *WAL) RecoverPending() ([]*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pattern := filepath.Join(w.dir, "*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
	}

	var pending []*Entry
	for _, path := range matches {
		txID := strings.TrimSuffix(filepath.Base(path), ".json")
		entry, readErr := w.readEntry(txID)
		if readErr != nil {
			w.logger.Warn("Невалидная запись журнала, пропуск",
				slog.String("path", path),
				slog.String("error", readErr.Error()),
			)
			continue
		}
		if entry.Status == StatusPending {
			pending = append(pending, entry)
		}
	}

	return pending, nil
}

// entryPath возвращает путь к файлу записи журнала.
func (w *WAL) entryPath(txID string) string {
	return filepath.Join(w.dir, txID+".json")
}

// writeEntry атомарно записывает запись журнала на диск.
func (w *WAL) writeEntry(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	path := w.entryPath(entry.TransactionID)
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// readEntry читает запись журнала с диска.
func (w *WAL) readEntry(txID string) (*Entry, error) {
	data, err := os.ReadFile(w.entryPath(txID))
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("ошибка десериализации: %w", err)
	}

	return &entry, nil
}
