package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore хранит файлы в каталоге на диске и отдаёт их через статический маршрут.
type LocalStore struct {
	rootPath       string
	publicURL      string
	maxUploadBytes int64
}

// NewLocalStore создаёт файловое хранилище.
func NewLocalStore(rootPath, publicURL string, maxUploadMB int64) (*LocalStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LocalStore{
		rootPath:       rootPath,
		publicURL:      publicURL,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Root возвращает корневой каталог хранилища.
func (s *LocalStore) Root() string { return s.rootPath }

// Save записывает файл через временный файл и атомарно переименовывает его.
func (s *LocalStore) Save(ctx context.Context, key, _ string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key, err := cleanKey(key)
	if err != nil {
		return 0, err
	}

	targetPath := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return 0, fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return 0, fmt.Errorf("%w: %d байт", ErrFileTooLarge, s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}
	return written, nil
}

// Delete удаляет файл из хранилища.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// URL возвращает публичный путь к файлу.
func (s *LocalStore) URL(key string) string {
	return s.publicURL + "/" + key
}
