package service

import (
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pixelfy/storage-service/internal/storage/attr"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// TestGet проверяет получение метаданных по file_path.
func TestGet(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "doc.pdf", "web", "", []byte("содержимое"))

	rec, serr := env.files.Get(res.Record.FilePath)
	if serr != nil {
		t.Fatalf("ошибка получения: %v", serr)
	}
	if rec.FileID != res.Record.FileID {
		t.Errorf("file_id: ожидалось %s, получено %s", res.Record.FileID, rec.FileID)
	}

	_, serr = env.files.Get("web/нет-такого.pdf")
	if serr == nil || serr.Code != CodeNotFound {
		t.Errorf("ожидался %s, получено: %v", CodeNotFound, serr)
	}

	_, serr = env.files.Get("../../etc/passwd")
	if serr == nil || serr.Code != CodePathViolation {
		t.Errorf("ожидался %s, получено: %v", CodePathViolation, serr)
	}
}

// TestServe_Attachment проверяет скачивание с оригинальным именем.
func TestServe_Attachment(t *testing.T) {
	env := newTestEnv(t)
	content := []byte("содержимое документа")
	res := env.upload(t, "Отчёт.pdf", "web", "", content)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/file/"+res.Record.FilePath, nil)

	if serr := env.files.Serve(w, r, res.Record.FilePath, false); serr != nil {
		t.Fatalf("ошибка выдачи: %v", serr)
	}

	if w.Code != http.StatusOK {
		t.Errorf("статус: ожидался 200, получен %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type: получено %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "Отчёт.pdf") {
		t.Errorf("Content-Disposition: получено %s", cd)
	}
	if w.Body.String() != string(content) {
		t.Error("тело ответа не совпадает с содержимым файла")
	}
}

// TestServe_Inline проверяет выдачу для отображения в браузере.
func TestServe_Inline(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "photo.png", "web", "", pngBytes(t, 10, 10, color.NRGBA{B: 255, A: 255}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/serve/"+res.Record.FilePath, nil)

	if serr := env.files.Serve(w, r, res.Record.FilePath, true); serr != nil {
		t.Fatalf("ошибка выдачи: %v", serr)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("inline-выдача не должна содержать Content-Disposition")
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: получено %s", ct)
	}
}

// TestServe_Thumbnail проверяет выдачу миниатюры без записи в индексе.
func TestServe_Thumbnail(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "photo.png", "web", "", pngBytes(t, 400, 400, color.NRGBA{R: 255, A: 255}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/serve/"+res.Record.ThumbnailPath, nil)

	if serr := env.files.Serve(w, r, res.Record.ThumbnailPath, true); serr != nil {
		t.Fatalf("ошибка выдачи миниатюры: %v", serr)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type миниатюры: получено %s", ct)
	}
}

// TestDelete проверяет удаление файла, миниатюры и метаданных.
func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "photo.png", "web", "", pngBytes(t, 400, 400, color.NRGBA{R: 255, A: 255}))
	rec := res.Record

	if serr := env.files.Delete(rec.FilePath); serr != nil {
		t.Fatalf("ошибка удаления: %v", serr)
	}

	if env.store.FileExists(rec.FilePath) {
		t.Error("файл остался на диске")
	}
	if env.store.FileExists(rec.ThumbnailPath) {
		t.Error("миниатюра осталась на диске")
	}
	if env.store.FileExists(attr.AttrFilePath(rec.FilePath)) {
		t.Error("attr.json остался на диске")
	}
	if env.idx.Get(rec.FilePath) != nil {
		t.Error("запись осталась в индексе")
	}

	// Повторное удаление — NOT_FOUND
	serr := env.files.Delete(rec.FilePath)
	if serr == nil || serr.Code != CodeNotFound {
		t.Errorf("ожидался %s, получено: %v", CodeNotFound, serr)
	}
}

// TestList проверяет листинг с фильтрацией и пагинацией.
func TestList(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "web", "", []byte("a"))
	env.upload(t, "b.pdf", "web", "", []byte("b"))
	env.upload(t, "c.pdf", "ai", "", []byte("c"))

	list, serr := env.files.List(index.Filter{}, 0, 0)
	if serr != nil {
		t.Fatalf("ошибка листинга: %v", serr)
	}
	if list.Total != 3 || len(list.Files) != 3 {
		t.Errorf("ожидалось 3 файла, получено total=%d len=%d", list.Total, len(list.Files))
	}

	list, _ = env.files.List(index.Filter{Service: "web"}, 1, 0)
	if list.Total != 2 || len(list.Files) != 1 {
		t.Errorf("фильтр+пагинация: total=%d len=%d", list.Total, len(list.Files))
	}

	_, serr = env.files.List(index.Filter{}, -1, 0)
	if serr == nil || serr.Code != CodeValidationError {
		t.Errorf("отрицательный limit: ожидался %s, получено: %v", CodeValidationError, serr)
	}
}
