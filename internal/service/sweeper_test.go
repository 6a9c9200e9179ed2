package service

import (
	"image/color"
	"testing"
	"time"

	"github.com/pixelfy/storage-service/internal/storage/attr"
)

// backdate переписывает uploaded_at записи в индексе и attr.json.
func backdate(t *testing.T, env *testEnv, filePath string, uploadedAt time.Time) {
	t.Helper()
	rec := env.idx.Get(filePath)
	if rec == nil {
		t.Fatalf("запись %s не найдена", filePath)
	}
	rec.UploadedAt = uploadedAt
	if err := attr.Write(attr.AttrFilePath(env.store.FullPath(filePath)), rec); err != nil {
		t.Fatal(err)
	}
	env.idx.Remove(filePath)
	if err := env.idx.Add(rec); err != nil {
		t.Fatal(err)
	}
}

// TestCleanup_AgeThreshold проверяет удаление только файлов
// старше порога вместе с миниатюрами и метаданными.
func TestCleanup_AgeThreshold(t *testing.T) {
	env := newTestEnv(t)
	logger := env.uploads.logger
	sweeper := NewCleanupService(env.idx, env.store, time.Hour, 30, logger)

	now := time.Now().UTC()

	old := env.upload(t, "old.png", "web", "", pngBytes(t, 400, 400, color.NRGBA{R: 255, A: 255})).Record
	mid := env.upload(t, "mid.pdf", "web", "", []byte("mid")).Record
	fresh := env.upload(t, "fresh.pdf", "ai", "", []byte("fresh")).Record

	backdate(t, env, old.FilePath, now.AddDate(0, 0, -40))
	backdate(t, env, mid.FilePath, now.AddDate(0, 0, -20))
	backdate(t, env, fresh.FilePath, now.AddDate(0, 0, -1))

	result := sweeper.RunOnce(30)
	if result.Deleted != 1 {
		t.Errorf("ожидалось 1 удаление, получено %d", result.Deleted)
	}
	if result.Failed != 0 {
		t.Errorf("ожидалось 0 ошибок, получено %d", result.Failed)
	}

	// Старый файл удалён полностью
	if env.store.FileExists(old.FilePath) {
		t.Error("старый файл остался на диске")
	}
	if env.store.FileExists(old.ThumbnailPath) {
		t.Error("миниатюра старого файла осталась на диске")
	}
	if env.store.FileExists(attr.AttrFilePath(old.FilePath)) {
		t.Error("attr.json старого файла остался")
	}
	if env.idx.Get(old.FilePath) != nil {
		t.Error("запись старого файла осталась в индексе")
	}

	// Свежие файлы нетронуты
	for _, rec := range []string{mid.FilePath, fresh.FilePath} {
		if !env.store.FileExists(rec) {
			t.Errorf("файл %s не должен быть удалён", rec)
		}
		if env.idx.Get(rec) == nil {
			t.Errorf("запись %s не должна быть удалена", rec)
		}
	}
}

// TestCleanup_ExpiresAt проверяет удаление файлов с истёкшим
// индивидуальным сроком независимо от возраста.
func TestCleanup_ExpiresAt(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewCleanupService(env.idx, env.store, time.Hour, 30, env.uploads.logger)

	rec := env.upload(t, "temp.pdf", "web", "", []byte("x")).Record

	// Свежая загрузка, но срок хранения уже истёк
	expired := time.Now().UTC().Add(-time.Minute)
	stored := env.idx.Get(rec.FilePath)
	stored.ExpiresAt = &expired
	if err := attr.Write(attr.AttrFilePath(env.store.FullPath(rec.FilePath)), stored); err != nil {
		t.Fatal(err)
	}
	env.idx.Remove(rec.FilePath)
	if err := env.idx.Add(stored); err != nil {
		t.Fatal(err)
	}

	result := sweeper.RunOnce(30)
	if result.Deleted != 1 {
		t.Errorf("ожидалось 1 удаление, получено %d", result.Deleted)
	}
	if env.store.FileExists(rec.FilePath) {
		t.Error("файл с истёкшим сроком остался на диске")
	}
}

// TestCleanup_MissingFileCountsDeleted проверяет, что отсутствующий
// на диске файл не считается ошибкой: запись просто удаляется.
func TestCleanup_MissingFileCountsDeleted(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewCleanupService(env.idx, env.store, time.Hour, 30, env.uploads.logger)

	rec := env.upload(t, "ghost.pdf", "web", "", []byte("x")).Record
	backdate(t, env, rec.FilePath, time.Now().UTC().AddDate(0, 0, -60))

	// Файл пропал с диска, запись осталась
	if err := env.store.DeleteFile(rec.FilePath); err != nil {
		t.Fatal(err)
	}

	result := sweeper.RunOnce(30)
	if result.Deleted != 1 || result.Failed != 0 {
		t.Errorf("ожидалось deleted=1 failed=0, получено deleted=%d failed=%d", result.Deleted, result.Failed)
	}
	if env.idx.Get(rec.FilePath) != nil {
		t.Error("запись осталась в индексе")
	}
}

// TestCleanup_DefaultDays проверяет подстановку порога по умолчанию.
func TestCleanup_DefaultDays(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewCleanupService(env.idx, env.store, time.Hour, 7, env.uploads.logger)

	rec := env.upload(t, "w.pdf", "web", "", []byte("x")).Record
	backdate(t, env, rec.FilePath, time.Now().UTC().AddDate(0, 0, -10))

	result := sweeper.RunOnce(0)
	if result.CutoffDays != 7 {
		t.Errorf("порог: ожидалось 7, получено %d", result.CutoffDays)
	}
	if result.Deleted != 1 {
		t.Errorf("ожидалось 1 удаление, получено %d", result.Deleted)
	}
}
