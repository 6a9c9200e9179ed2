package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfy/storage-service/internal/api/apierr"
	"github.com/pixelfy/storage-service/internal/service"
	"github.com/pixelfy/storage-service/internal/storage/index"
)

// maxMultipartMemory — порог буферизации multipart в памяти,
// всё сверх уходит во временные файлы.
const maxMultipartMemory = 32 << 20

// uploadResponse — тело ответа успешной загрузки.
type uploadResponse struct {
	File    any    `json:"file"`
	Warning string `json:"warning,omitempty"`
}

// Upload — POST /upload.
// Multipart-форма: file (обязательно), service, folder, user_id,
// expires_at (RFC 3339, опционально).
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	// Тело ограничено максимальным размером файла с запасом на
	// заголовки multipart: точный контроль выполняет сервисный слой.
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxFileSize+maxMultipartMemory)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierr.WriteCode(w, http.StatusRequestEntityTooLarge, service.CodeFileTooLarge, "размер запроса превышает максимум")
			return
		}
		apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "ожидалась multipart-форма с полем file")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "поле file не передано")
		return
	}
	defer file.Close()

	var expiresAt *time.Time
	if raw := r.FormValue("expires_at"); raw != "" {
		ts, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "expires_at: ожидается формат RFC 3339")
			return
		}
		expiresAt = &ts
	}

	result, serr := a.uploads.Upload(service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		Service:          r.FormValue("service"),
		Folder:           r.FormValue("folder"),
		UserID:           r.FormValue("user_id"),
		ExpiresAt:        expiresAt,
	})
	if serr != nil {
		apierr.Write(w, serr)
		return
	}

	apierr.WriteJSON(w, http.StatusCreated, uploadResponse{
		File:    result.Record,
		Warning: result.ThumbnailWarning,
	})
}

// ListFiles — GET /files?service=&user_id=&limit=&offset=.
func (a *API) ListFiles(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "limit: ожидается целое число")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		apierr.WriteCode(w, http.StatusBadRequest, service.CodeValidationError, "offset: ожидается целое число")
		return
	}

	filter := index.Filter{
		Service: r.URL.Query().Get("service"),
		UserID:  r.URL.Query().Get("user_id"),
	}

	result, serr := a.files.List(filter, limit, offset)
	if serr != nil {
		apierr.Write(w, serr)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, result)
}

// Download — GET /file/{file_path}: скачивание с оригинальным именем.
func (a *API) Download(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if serr := a.files.Serve(w, r, filePath, false); serr != nil {
		apierr.Write(w, serr)
	}
}

// ServeInline — GET /serve/{file_path}: выдача для браузера.
func (a *API) ServeInline(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if serr := a.files.Serve(w, r, filePath, true); serr != nil {
		apierr.Write(w, serr)
	}
}

// Delete — DELETE /file/{file_path}.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if serr := a.files.Delete(filePath); serr != nil {
		apierr.Write(w, serr)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"deleted": filePath})
}

// queryInt разбирает целочисленный query-параметр.
func queryInt(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(raw)
}
