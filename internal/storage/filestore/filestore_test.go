package filestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNew_CreatesDirectory проверяет создание корневой директории.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	info, err := os.Stat(fs.Root())
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestSaveFile проверяет сохранение файла с подсчётом SHA-256.
func TestSaveFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("Hello, World! Тестовые данные для проверки.")
	relPath := filepath.Join("web", "media", "abc.jpg")

	result, err := fs.SaveFile(bytes.NewReader(content), relPath, 1<<20)
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}

	expectedHash := sha256.Sum256(content)
	expectedChecksum := hex.EncodeToString(expectedHash[:])
	if result.Checksum != expectedChecksum {
		t.Errorf("checksum: ожидалось %s, получено %s", expectedChecksum, result.Checksum)
	}

	data, err := os.ReadFile(fs.FullPath(relPath))
	if err != nil {
		t.Fatalf("ошибка чтения файла: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("содержимое файла не совпадает")
	}
}

// TestSaveFile_SizeBoundary проверяет границу максимального размера:
// файл ровно maxSize принимается, на байт больше — отклоняется.
func TestSaveFile_SizeBoundary(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	const maxSize = 1024
	exact := bytes.Repeat([]byte("a"), maxSize)

	result, err := fs.SaveFile(bytes.NewReader(exact), "web/exact.bin", maxSize)
	if err != nil {
		t.Fatalf("файл размером ровно maxSize должен приниматься: %v", err)
	}
	if result.Size != maxSize {
		t.Errorf("размер: ожидалось %d, получено %d", maxSize, result.Size)
	}

	over := bytes.Repeat([]byte("a"), maxSize+1)
	_, err = fs.SaveFile(bytes.NewReader(over), "web/over.bin", maxSize)
	if !errors.Is(err, ErrSizeExceeded) {
		t.Errorf("ожидалась ErrSizeExceeded, получено: %v", err)
	}

	// Частичный файл не должен остаться на диске
	if fs.FileExists("web/over.bin") {
		t.Error("частичный файл остался на диске после превышения размера")
	}
	if fs.FileExists("web/over.bin.tmp") {
		t.Error("временный файл остался на диске после превышения размера")
	}
}

// TestSaveFile_FailedRead проверяет удаление частичного файла при
// ошибке чтения потока.
func TestSaveFile_FailedRead(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	_, err = fs.SaveFile(&failingReader{}, "web/broken.bin", 1<<20)
	if err == nil {
		t.Fatal("ожидалась ошибка записи")
	}

	if fs.FileExists("web/broken.bin") || fs.FileExists("web/broken.bin.tmp") {
		t.Error("частичный файл остался на диске после ошибки чтения")
	}
}

// TestSaveFile_NoTmpFile проверяет, что temp файл удалён после сохранения.
func TestSaveFile_NoTmpFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if _, err := fs.SaveFile(bytes.NewReader([]byte("data")), "web/f.txt", 1024); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(fs.Root(), "web"))
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("найден temp файл: %s", e.Name())
		}
	}
}

// TestDeleteFile_Missing проверяет, что удаление отсутствующего файла
// не является ошибкой.
func TestDeleteFile_Missing(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if err := fs.DeleteFile("web/nosuch.bin"); err != nil {
		t.Errorf("удаление отсутствующего файла вернуло ошибку: %v", err)
	}
}

// TestComputeChecksum проверяет пересчёт SHA-256 существующего файла.
func TestComputeChecksum(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("checksum test data")
	result, err := fs.SaveFile(bytes.NewReader(content), "web/c.bin", 1024)
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	checksum, err := fs.ComputeChecksum("web/c.bin")
	if err != nil {
		t.Fatalf("ошибка вычисления checksum: %v", err)
	}
	if checksum != result.Checksum {
		t.Errorf("checksum не совпадает: %s != %s", checksum, result.Checksum)
	}
}

// failingReader — reader, возвращающий ошибку после первого чтения.
type failingReader struct {
	called bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.called {
		return 0, errors.New("обрыв потока")
	}
	r.called = true
	n := copy(p, []byte("partial"))
	return n, nil
}
