package service

import "net/http"

// Машинные коды ошибок, возвращаемые в теле ответа API.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeUnknownService  = "UNKNOWN_SERVICE"
	CodePathViolation   = "PATH_VIOLATION"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeWriteFailure    = "WRITE_FAILURE"
	CodeDuplicatePath   = "DUPLICATE_PATH"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

// StorageError — доменная ошибка с HTTP-статусом и машинным кодом.
// Транспортный слой сериализует её в {"error": {"code", "message"}}.
type StorageError struct {
	// StatusCode — HTTP-статус ответа
	StatusCode int
	// Code — машинный код ошибки
	Code string
	// Message — человекочитаемое описание
	Message string
}

// Error реализует интерфейс error.
func (e *StorageError) Error() string {
	return e.Message
}

func errValidation(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusBadRequest, Code: CodeValidationError, Message: message}
}

func errUnsupportedType(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusBadRequest, Code: CodeUnsupportedType, Message: message}
}

func errUnknownService(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusBadRequest, Code: CodeUnknownService, Message: message}
}

func errPathViolation(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusBadRequest, Code: CodePathViolation, Message: message}
}

func errFileTooLarge(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusRequestEntityTooLarge, Code: CodeFileTooLarge, Message: message}
}

func errWriteFailure(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusInternalServerError, Code: CodeWriteFailure, Message: message}
}

func errDuplicatePath(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusConflict, Code: CodeDuplicatePath, Message: message}
}

func errNotFound(message string) *StorageError {
	return &StorageError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: message}
}
