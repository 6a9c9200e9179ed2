// Пакет model — доменные модели Storage Service.
// FileRecord — единая структура метаданных файла, используется
// как in-memory представление и как формат attr.json на диске.
package model

import (
	"mime"
	"strings"
	"time"
)

// FileRecord — метаданные одного сохранённого файла.
// Соответствует содержимому attr.json. Запись неизменяема после
// создания: единственная допустимая операция — полное удаление.
type FileRecord struct {
	// FileID — уникальный идентификатор файла (UUID v4)
	FileID string `json:"file_id"`

	// OriginalFilename — оригинальное имя файла при загрузке.
	// Может содержать небезопасные символы, никогда не используется
	// как компонент пути на диске.
	OriginalFilename string `json:"original_filename"`

	// StoredFilename — имя файла на диске: {file_id}{ext}.
	// Расширение берётся из оригинального имени в нижнем регистре.
	StoredFilename string `json:"stored_filename"`

	// Service — сервисное пространство имён (web, ai, presentai, office, general).
	// Используется как директория верхнего уровня.
	Service string `json:"service"`

	// Folder — подпапка внутри сервиса (опционально)
	Folder string `json:"folder,omitempty"`

	// FilePath — относительный путь файла: service[/folder]/stored_filename.
	// Естественный ключ записи, уникален в пределах хранилища.
	FilePath string `json:"file_path"`

	// FileSize — размер файла в байтах (равен фактически записанным байтам)
	FileSize int64 `json:"file_size"`

	// FileHash — SHA-256 хэш содержимого файла (hex).
	// Используется для проверки целостности, не для дедупликации.
	FileHash string `json:"file_hash"`

	// MimeType — MIME-тип, определённый по расширению
	MimeType string `json:"mime_type"`

	// UserID — идентификатор пользователя от вызывающего сервиса (опционально)
	UserID string `json:"user_id,omitempty"`

	// ThumbnailPath — относительный путь миниатюры.
	// Присутствует только если миниатюра была создана.
	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	// UploadedAt — дата и время загрузки (UTC), устанавливается один раз
	UploadedAt time.Time `json:"uploaded_at"`

	// ExpiresAt — индивидуальный срок хранения файла.
	// nil — файл живёт до порога retention sweep.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsExpired проверяет, истёк ли индивидуальный срок хранения файла.
func (r *FileRecord) IsExpired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return now.After(*r.ExpiresAt)
}

// OlderThan проверяет, что файл загружен раньше указанного момента.
// Используется retention sweep для отбора кандидатов на удаление.
func (r *FileRecord) OlderThan(cutoff time.Time) bool {
	return r.UploadedAt.Before(cutoff)
}

// imageExtensions — расширения, для которых создаётся миниатюра.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImageExtension проверяет, является ли расширение (с точкой,
// в нижнем регистре) поддерживаемым форматом изображения.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// MimeTypeByExtension определяет MIME-тип по расширению файла.
// Для неизвестных расширений возвращает application/octet-stream.
func MimeTypeByExtension(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	mt := mime.TypeByExtension(strings.ToLower(ext))
	if mt == "" {
		return "application/octet-stream"
	}
	// Убираем параметры (charset и т.д.)
	if idx := strings.Index(mt, ";"); idx != -1 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}
