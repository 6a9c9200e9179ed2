// disk_usage.go — получение информации об ёмкости диска.
// Платформозависимый код для Unix-подобных систем.
package filestore

import (
	"fmt"
	"syscall"
)

// DiskUsage возвращает информацию о дисковом пространстве тома,
// на котором расположен корень хранилища.
// Возвращает total, used, available в байтах.
func (fs *FileStore) DiskUsage() (total, used, available int64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(fs.root, &stat); err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка statfs %s: %w", fs.root, err)
	}

	total = int64(stat.Blocks) * int64(stat.Bsize)
	available = int64(stat.Bavail) * int64(stat.Bsize)
	used = total - available

	return total, used, available, nil
}
