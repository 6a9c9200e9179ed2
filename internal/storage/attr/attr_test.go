package attr

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelfy/storage-service/internal/domain/model"
)

func sampleRecord(filePath string) *model.FileRecord {
	return &model.FileRecord{
		FileID:           "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		OriginalFilename: "фото отпуск.jpg",
		StoredFilename:   "a1b2c3d4-e5f6-7890-abcd-ef1234567890.jpg",
		Service:          "web",
		Folder:           "media",
		FilePath:         filePath,
		FileSize:         1234,
		FileHash:         "deadbeef",
		MimeType:         "image/jpeg",
		UserID:           "user-42",
		UploadedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestWriteRead проверяет цикл записи и чтения attr.json.
func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "web", "media", "abc.jpg")
	attrPath := AttrFilePath(dataPath)

	rec := sampleRecord("web/media/abc.jpg")
	if err := Write(attrPath, rec); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	got, err := Read(attrPath)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}

	if got.FileID != rec.FileID {
		t.Errorf("file_id: ожидалось %s, получено %s", rec.FileID, got.FileID)
	}
	if got.FilePath != rec.FilePath {
		t.Errorf("file_path: ожидалось %s, получено %s", rec.FilePath, got.FilePath)
	}
	if got.OriginalFilename != rec.OriginalFilename {
		t.Errorf("original_filename не совпадает: %s", got.OriginalFilename)
	}
	if !got.UploadedAt.Equal(rec.UploadedAt) {
		t.Errorf("uploaded_at не совпадает: %v", got.UploadedAt)
	}
}

// TestDelete_Missing проверяет, что удаление отсутствующего attr.json
// не является ошибкой.
func TestDelete_Missing(t *testing.T) {
	if err := Delete(filepath.Join(t.TempDir(), "nosuch.attr.json")); err != nil {
		t.Errorf("удаление отсутствующего attr.json вернуло ошибку: %v", err)
	}
}

// TestScanDir проверяет рекурсивный обход поддиректорий сервисов.
func TestScanDir(t *testing.T) {
	root := t.TempDir()

	paths := []string{
		"web/a.jpg",
		"web/media/b.png",
		"ai/generated/c.webp",
	}
	for _, p := range paths {
		dataPath := filepath.Join(root, p)
		if err := Write(AttrFilePath(dataPath), sampleRecord(p)); err != nil {
			t.Fatalf("ошибка записи %s: %v", p, err)
		}
	}

	// Служебная директория должна игнорироваться
	walDir := filepath.Join(root, ".wal")
	if err := os.MkdirAll(walDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := Write(filepath.Join(walDir, "x.bin")+AttrSuffix, sampleRecord("x")); err != nil {
		t.Fatal(err)
	}

	// Невалидный attr.json пропускается
	if err := os.WriteFile(filepath.Join(root, "web", "broken.bin"+AttrSuffix), []byte("{не json"), 0o640); err != nil {
		t.Fatal(err)
	}

	records, err := ScanDir(root)
	if err != nil {
		t.Fatalf("ошибка сканирования: %v", err)
	}
	if len(records) != len(paths) {
		t.Errorf("ожидалось %d записей, получено %d", len(paths), len(records))
	}
}

// TestIsAttrFile проверяет распознавание файлов метаданных.
func TestIsAttrFile(t *testing.T) {
	if !IsAttrFile("abc.jpg.attr.json") {
		t.Error("abc.jpg.attr.json должен распознаваться как attr файл")
	}
	if IsAttrFile("abc.jpg") {
		t.Error("abc.jpg не является attr файлом")
	}
	if DataFilePathFromAttr("web/abc.jpg.attr.json") != "web/abc.jpg" {
		t.Error("неверное восстановление пути файла данных")
	}
}
