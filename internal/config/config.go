// Пакет config — загрузка и валидация конфигурации Storage Service
// из переменных окружения. Поддерживает .env файл (godotenv).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// defaultAllowedExtensions — расширения, принимаемые по умолчанию.
const defaultAllowedExtensions = "jpg,jpeg,png,gif,webp,mp4,webm,mov,avi,mkv,mp3,wav,m4a,aac,pdf,pptx,ppt,docx,doc"

// defaultServices — сервисные пространства имён по умолчанию.
const defaultServices = "web,ai,presentai,office,general"

// Config содержит все параметры конфигурации Storage Service.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к корневой директории хранения файлов
	DataDir string
	// Путь к директории журнала загрузок
	WALDir string
	// Известные сервисные пространства имён
	Services []string
	// Допустимые расширения файлов (нижний регистр, без точки)
	AllowedExtensions map[string]bool
	// Максимальный размер файла в байтах
	MaxFileSize int64
	// API-ключ для защищённых endpoints
	APIKey string
	// Автоматический запуск retention sweep
	AutoCleanupEnabled bool
	// Порог возраста файлов для retention sweep (в днях)
	CleanupDays int
	// Интервал запуска retention sweep
	CleanupInterval time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// .env файл в рабочей директории подхватывается автоматически.
func Load() (*Config, error) {
	// .env опционален: отсутствие файла не является ошибкой
	_ = godotenv.Load()

	cfg := &Config{}

	// STORAGE_PORT — порт HTTP-сервера (по умолчанию 8005)
	port, err := getEnvInt("STORAGE_PORT", 8005)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("STORAGE_PORT: значение %d вне допустимого диапазона", port)
	}
	cfg.Port = port

	// STORAGE_DATA_DIR — корень хранилища (по умолчанию ./data)
	cfg.DataDir = getEnvDefault("STORAGE_DATA_DIR", "./data")

	// STORAGE_WAL_DIR — директория журнала (по умолчанию {DataDir}/.wal)
	cfg.WALDir = getEnvDefault("STORAGE_WAL_DIR", "")
	if cfg.WALDir == "" {
		cfg.WALDir = cfg.DataDir + "/.wal"
	}

	// STORAGE_SERVICES — известные сервисы, через запятую
	cfg.Services = splitCSV(getEnvDefault("STORAGE_SERVICES", defaultServices))
	if len(cfg.Services) == 0 {
		return nil, fmt.Errorf("STORAGE_SERVICES: список сервисов не может быть пустым")
	}

	// STORAGE_ALLOWED_EXTENSIONS — допустимые расширения, через запятую
	exts := splitCSV(getEnvDefault("STORAGE_ALLOWED_EXTENSIONS", defaultAllowedExtensions))
	cfg.AllowedExtensions = make(map[string]bool, len(exts))
	for _, ext := range exts {
		cfg.AllowedExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	// STORAGE_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	maxFileSize, err := getEnvInt64("STORAGE_MAX_FILE_SIZE", 52428800)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("STORAGE_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// STORAGE_API_KEY — обязательный
	cfg.APIKey = os.Getenv("STORAGE_API_KEY")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("STORAGE_API_KEY: обязательная переменная не задана")
	}

	// STORAGE_AUTO_CLEANUP — автоматический retention sweep (по умолчанию true)
	cfg.AutoCleanupEnabled = strings.ToLower(getEnvDefault("STORAGE_AUTO_CLEANUP", "true")) == "true"

	// STORAGE_CLEANUP_DAYS — порог возраста файлов (по умолчанию 30 дней)
	days, err := getEnvInt("STORAGE_CLEANUP_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_CLEANUP_DAYS: %w", err)
	}
	if days <= 0 {
		return nil, fmt.Errorf("STORAGE_CLEANUP_DAYS: значение должно быть положительным")
	}
	cfg.CleanupDays = days

	// STORAGE_CLEANUP_INTERVAL — интервал sweep (по умолчанию 24h)
	cfg.CleanupInterval, err = getEnvDuration("STORAGE_CLEANUP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_CLEANUP_INTERVAL: %w", err)
	}

	// STORAGE_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("STORAGE_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("STORAGE_LOG_LEVEL: %w", err)
	}

	// STORAGE_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = strings.ToLower(getEnvDefault("STORAGE_LOG_FORMAT", "json"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("STORAGE_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// STORAGE_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 25s)
	cfg.ShutdownTimeout, err = getEnvDuration("STORAGE_SHUTDOWN_TIMEOUT", 25*time.Second)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// KnownService проверяет, входит ли сервис в сконфигурированный набор.
func (c *Config) KnownService(service string) bool {
	for _, svc := range c.Services {
		if svc == service {
			return true
		}
	}
	return false
}

// ExtensionAllowed проверяет расширение (без точки, регистронезависимо)
// по allow-list. Файлы без расширения допускаются.
func (c *Config) ExtensionAllowed(ext string) bool {
	if ext == "" {
		return true
	}
	return c.AllowedExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// SetupLogger создаёт slog.Logger согласно конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции чтения окружения ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает int из переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 24h)", val)
	}
	return d, nil
}

// splitCSV разбивает строку по запятым, отбрасывая пустые элементы.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
