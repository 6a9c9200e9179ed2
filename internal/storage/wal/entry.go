package wal

import "time"

// OperationType — тип операции в журнале загрузок.
type OperationType string

const (
	// OpUpload — загрузка нового файла
	OpUpload OperationType = "upload"
)

// Status — статус записи журнала.
type Status string

const (
	// StatusPending — операция начата, но не завершена
	StatusPending Status = "pending"
	// StatusCommitted — операция успешно завершена
	StatusCommitted Status = "committed"
	// StatusRolledBack — операция откачена
	StatusRolledBack Status = "rolled_back"
)

// Entry — запись журнала загрузок. Сохраняется в JSON-файл
// {transaction_id}.json в директории журнала.
type Entry struct {
	// TransactionID — уникальный идентификатор транзакции (UUID v4)
	TransactionID string `json:"transaction_id"`

	// Operation — тип операции
	Operation OperationType `json:"operation"`

	// Status — текущий статус
	Status Status `json:"status"`

	// FileID — идентификатор файла операции
	FileID string `json:"file_id"`

	// FilePath — относительный путь файла в хранилище.
	// По нему recovery удаляет частичные артефакты (файл, миниатюру,
	// attr.json) при откате незавершённой загрузки.
	FilePath string `json:"file_path"`

	// StartedAt — время начала операции (UTC)
	StartedAt time.Time `json:"started_at"`

	// CompletedAt — время завершения (commit или rollback)
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
