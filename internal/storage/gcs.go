package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSStore хранит файлы в бакете Google Cloud Storage.
type GCSStore struct {
	client         *gcs.Client
	bucket         string
	publicBase     string
	maxUploadBytes int64
}

// NewGCSStore создаёт клиента с учётными данными по умолчанию (GOOGLE_APPLICATION_CREDENTIALS).
func NewGCSStore(ctx context.Context, bucket string, maxUploadMB int64) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать клиент GCS: %w", err)
	}
	return &GCSStore{
		client:         client,
		bucket:         bucket,
		publicBase:     "https://storage.googleapis.com/" + bucket,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save загружает объект в бакет.
func (s *GCSStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	key, err := cleanKey(key)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(w, &io.LimitedReader{R: r, N: s.maxUploadBytes + 1})
	if err != nil {
		// Отмена контекста прерывает незавершённую загрузку.
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("storage: ошибка загрузки в GCS: %w", err)
	}
	if written > s.maxUploadBytes {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("%w: %d байт", ErrFileTooLarge, s.maxUploadBytes)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("storage: ошибка завершения загрузки в GCS: %w", err)
	}
	return written, nil
}

// Delete удаляет объект, отсутствующий объект не считается ошибкой.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: не удалось удалить объект: %w", err)
	}
	return nil
}

// URL возвращает публичный адрес объекта.
func (s *GCSStore) URL(key string) string {
	return s.publicBase + "/" + key
}

// Close закрывает клиента GCS.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
