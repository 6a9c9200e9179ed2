// Пакет filestore — операции с физическими файлами на диске.
// Обеспечивает streaming-запись с подсчётом SHA-256 на лету и
// инкрементальным контролем максимального размера, чтение, удаление
// и получение информации о ёмкости диска.
package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSizeExceeded — размер потока превысил допустимый максимум.
// Запись прерывается в момент превышения, частичный файл удаляется.
var ErrSizeExceeded = errors.New("размер файла превышает максимум")

// FileStore — управление физическими файлами внутри корня хранилища.
type FileStore struct {
	// root — корневая директория хранения файлов (STORAGE_DATA_DIR)
	root string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 хэш содержимого файла (hex)
	Checksum string
}

// New создаёт новый FileStore. Проверяет и создаёт корневую директорию,
// если она не существует.
func New(root string) (*FileStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить абсолютный путь %s: %w", root, err)
	}
	if err := os.MkdirAll(absRoot, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", absRoot, err)
	}
	return &FileStore{root: absRoot}, nil
}

// Root возвращает путь к корневой директории данных.
func (fs *FileStore) Root() string {
	return fs.root
}

// FullPath возвращает абсолютный путь к файлу по относительному file_path.
// Не выполняет проверку безопасности пути — это задача pathres.
func (fs *FileStore) FullPath(relPath string) string {
	return filepath.Join(fs.root, relPath)
}

// SaveFile записывает данные из reader по относительному пути relPath
// с подсчётом SHA-256 на лету. Размер контролируется инкрементально:
// как только поток превышает maxSize байт, чтение прерывается и
// возвращается ErrSizeExceeded. Файл размером ровно maxSize принимается.
//
// Паттерн: temp файл → запись + SHA-256 → fsync → atomic rename.
// При любой ошибке temp файл удаляется, частичных файлов не остаётся.
func (fs *FileStore) SaveFile(reader io.Reader, relPath string, maxSize int64) (*SaveResult, error) {
	fullPath := fs.FullPath(relPath)

	// Создаём директорию назначения (идемпотентно)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}

	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	// Streaming запись с одновременным подсчётом SHA-256.
	// Читаем не более maxSize+1 байт: лишний байт означает превышение.
	hasher := sha256.New()
	tee := io.TeeReader(io.LimitReader(reader, maxSize+1), hasher)

	size, err := io.Copy(f, tee)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if size > maxSize {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: записано более %d байт", ErrSizeExceeded, maxSize)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// ReadFile открывает файл для чтения по относительному пути.
// Вызывающий код обязан закрыть возвращённый файл.
func (fs *FileStore) ReadFile(relPath string) (*os.File, error) {
	fullPath := fs.FullPath(relPath)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", relPath)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", relPath, err)
	}
	return f, nil
}

// DeleteFile удаляет файл с диска по относительному пути.
// Возвращает nil, если файл уже не существует.
func (fs *FileStore) DeleteFile(relPath string) error {
	err := os.Remove(fs.FullPath(relPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", relPath, err)
	}
	return nil
}

// FileExists проверяет существование файла на диске.
func (fs *FileStore) FileExists(relPath string) bool {
	_, err := os.Stat(fs.FullPath(relPath))
	return err == nil
}

// FileSize возвращает размер файла на диске.
func (fs *FileStore) FileSize(relPath string) (int64, error) {
	info, err := os.Stat(fs.FullPath(relPath))
	if err != nil {
		return 0, fmt.Errorf("ошибка получения информации о файле %s: %w", relPath, err)
	}
	return info.Size(), nil
}

// ComputeChecksum вычисляет SHA-256 хэш существующего файла.
// Используется при reconciliation для проверки целостности.
func (fs *FileStore) ComputeChecksum(relPath string) (string, error) {
	f, err := os.Open(fs.FullPath(relPath))
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла %s: %w", relPath, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("ошибка вычисления checksum %s: %w", relPath, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
