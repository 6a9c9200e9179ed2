package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

// pngBytes генерирует PNG указанного размера.
func pngBytes(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("ошибка кодирования PNG: %v", err)
	}
	return buf.Bytes()
}

// TestThumbnail_Downscale проверяет уменьшение большого изображения
// до 300x300 с сохранением пропорций.
func TestThumbnail_Downscale(t *testing.T) {
	env := newTestEnv(t)

	res := env.upload(t, "photo.png", "web", "", pngBytes(t, 900, 600, color.NRGBA{R: 200, A: 255}))
	rec := res.Record

	if res.ThumbnailWarning != "" {
		t.Fatalf("неожиданное предупреждение: %s", res.ThumbnailWarning)
	}
	if rec.ThumbnailPath != ThumbnailRelPath(rec.FilePath, rec.FileID) {
		t.Errorf("thumbnail_path: получено %s", rec.ThumbnailPath)
	}
	if !env.store.FileExists(rec.ThumbnailPath) {
		t.Fatal("миниатюра не найдена на диске")
	}

	thumb, err := imaging.Open(env.store.FullPath(rec.ThumbnailPath))
	if err != nil {
		t.Fatalf("миниатюра не декодируется: %v", err)
	}

	bounds := thumb.Bounds()
	if bounds.Dx() > 300 || bounds.Dy() > 300 {
		t.Errorf("миниатюра больше 300x300: %dx%d", bounds.Dx(), bounds.Dy())
	}
	// Пропорции 3:2 сохраняются: 300x200
	if bounds.Dx() != 300 || bounds.Dy() != 200 {
		t.Errorf("ожидалось 300x200, получено %dx%d", bounds.Dx(), bounds.Dy())
	}
}

// TestThumbnail_NoUpscale проверяет, что маленькое изображение
// не увеличивается.
func TestThumbnail_NoUpscale(t *testing.T) {
	env := newTestEnv(t)

	res := env.upload(t, "icon.png", "web", "", pngBytes(t, 64, 64, color.NRGBA{G: 200, A: 255}))

	thumb, err := imaging.Open(env.store.FullPath(res.Record.ThumbnailPath))
	if err != nil {
		t.Fatalf("миниатюра не декодируется: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 64 {
		t.Errorf("ожидалось 64x64 без увеличения, получено %dx%d", bounds.Dx(), bounds.Dy())
	}
}

// TestThumbnail_FlattensAlpha проверяет наложение прозрачного
// изображения на белый фон.
func TestThumbnail_FlattensAlpha(t *testing.T) {
	env := newTestEnv(t)

	// Полностью прозрачное изображение
	res := env.upload(t, "ghost.png", "web", "", pngBytes(t, 100, 100, color.NRGBA{A: 0}))

	thumb, err := imaging.Open(env.store.FullPath(res.Record.ThumbnailPath))
	if err != nil {
		t.Fatalf("миниатюра не декодируется: %v", err)
	}

	r, g, b, _ := thumb.At(50, 50).RGBA()
	// JPEG с потерями: допускаем небольшое отклонение от чистого белого
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("фон должен быть белым, получено RGB(%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

// TestThumbnail_NotForDocuments проверяет, что миниатюры создаются
// только для изображений.
func TestThumbnail_NotForDocuments(t *testing.T) {
	env := newTestEnv(t)

	res := env.upload(t, "doc.pdf", "web", "", []byte("%PDF-1.4"))
	if res.Record.ThumbnailPath != "" {
		t.Errorf("для PDF миниатюра не создаётся: %s", res.Record.ThumbnailPath)
	}
	if res.ThumbnailWarning != "" {
		t.Errorf("неожиданное предупреждение: %s", res.ThumbnailWarning)
	}
}

// TestIsThumbnailName проверяет распознавание имён миниатюр.
func TestIsThumbnailName(t *testing.T) {
	if !IsThumbnailName("thumb_abc.jpg") {
		t.Error("thumb_abc.jpg — миниатюра")
	}
	if IsThumbnailName("photo.jpg") {
		t.Error("photo.jpg — не миниатюра")
	}
}
