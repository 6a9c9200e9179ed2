// Пакет pathres — безопасное разрешение путей хранилища.
// Отображает тройку (service, folder, filename) в путь строго внутри
// корневой директории хранения. Любая попытка выхода за корень
// (directory traversal через "..", абсолютные пути, разделители
// в имени сервиса) отклоняется с ErrPathViolation.
package pathres

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Сигнальные ошибки разрешения путей.
var (
	// ErrUnknownService — сервис не входит в набор известных пространств имён.
	ErrUnknownService = errors.New("неизвестный сервис")
	// ErrPathViolation — путь выходит за пределы корня хранилища.
	ErrPathViolation = errors.New("недопустимый путь")
)

// Resolver — разрешение путей внутри корня хранилища.
type Resolver struct {
	// root — абсолютный путь корневой директории хранения
	root string
	// services — набор известных сервисных пространств имён
	services map[string]bool
}

// New создаёт Resolver. Создаёт корневую директорию и директории
// всех известных сервисов, если они не существуют.
func New(root string, services []string) (*Resolver, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить абсолютный путь %s: %w", root, err)
	}

	if err := os.MkdirAll(absRoot, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать корневую директорию %s: %w", absRoot, err)
	}

	set := make(map[string]bool, len(services))
	for _, svc := range services {
		set[svc] = true
		if err := os.MkdirAll(filepath.Join(absRoot, svc), 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию сервиса %s: %w", svc, err)
		}
	}

	return &Resolver{root: absRoot, services: set}, nil
}

// Root возвращает абсолютный путь корня хранилища.
func (r *Resolver) Root() string {
	return r.root
}

// KnownService проверяет, входит ли сервис в набор известных.
func (r *Resolver) KnownService(service string) bool {
	return r.services[service]
}

// Services возвращает список известных сервисов.
func (r *Resolver) Services() []string {
	result := make([]string, 0, len(r.services))
	for svc := range r.services {
		result = append(result, svc)
	}
	return result
}

// Resolve строит относительный путь service[/folder]/filename и
// проверяет, что он не покидает корень хранилища.
// Возвращает относительный путь (ключ записи) и абсолютный путь на диске.
//
// Правила:
//   - service должен входить в набор известных (иначе ErrUnknownService)
//   - service и filename не могут содержать разделители пути
//   - folder может содержать вложенные сегменты, но не ".." и не абсолютный путь
func (r *Resolver) Resolve(service, folder, filename string) (rel string, abs string, err error) {
	if !r.services[service] {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if containsSeparator(service) || service == "." || service == ".." {
		return "", "", fmt.Errorf("%w: сервис содержит разделители пути", ErrPathViolation)
	}
	if filename == "" || containsSeparator(filename) || filename == "." || filename == ".." {
		return "", "", fmt.Errorf("%w: недопустимое имя файла %q", ErrPathViolation, filename)
	}
	if folder != "" {
		if err := validateFolder(folder); err != nil {
			return "", "", err
		}
	}

	parts := []string{service}
	if folder != "" {
		parts = append(parts, folder)
	}
	parts = append(parts, filename)

	rel = filepath.Join(parts...)
	abs, err = r.Within(rel)
	if err != nil {
		return "", "", err
	}
	return rel, abs, nil
}

// Within проверяет, что относительный путь после нормализации остаётся
// внутри корня хранилища, и возвращает абсолютный путь на диске.
// Используется для операций по готовому file_path (retrieve, delete).
func (r *Resolver) Within(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("%w: пустой путь", ErrPathViolation)
	}
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: абсолютный путь %q", ErrPathViolation, relPath)
	}

	abs := filepath.Clean(filepath.Join(r.root, relPath))
	if abs != r.root && !strings.HasPrefix(abs, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: путь %q выходит за пределы хранилища", ErrPathViolation, relPath)
	}
	if abs == r.root {
		return "", fmt.Errorf("%w: путь указывает на корень хранилища", ErrPathViolation)
	}
	return abs, nil
}

// EnsureDir идемпотентно создаёт директорию для абсолютного пути файла.
func (r *Resolver) EnsureDir(absFilePath string) error {
	dir := filepath.Dir(absFilePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}
	return nil
}

// validateFolder проверяет сегменты подпапки: запрещены "..",
// пустые сегменты и абсолютные пути.
func validateFolder(folder string) error {
	if filepath.IsAbs(folder) || strings.HasPrefix(folder, "/") || strings.HasPrefix(folder, "\\") {
		return fmt.Errorf("%w: абсолютный путь в folder %q", ErrPathViolation, folder)
	}
	normalized := strings.ReplaceAll(folder, "\\", "/")
	for _, seg := range strings.Split(normalized, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: недопустимый сегмент в folder %q", ErrPathViolation, folder)
		}
	}
	return nil
}

// containsSeparator проверяет наличие разделителей пути в строке.
func containsSeparator(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
