// Package storage сохраняет загруженные файлы в локальном каталоге или в Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile       = errors.New("файл не может быть пустым")
	ErrFileTooLarge    = errors.New("размер файла превышает лимит")
	ErrUnsupportedType = errors.New("неподдерживаемый тип файла")
)

// FileStore хранилище объектов по ключу.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// StoredFile описывает сохранённый файл.
type StoredFile struct {
	Key          string
	URL          string
	OriginalName string
	MIME         string
	Size         int64
}

// Uploader проверяет multipart-файл и кладёт его в хранилище.
type Uploader struct {
	store    FileStore
	maxBytes int64
	now      func() time.Time
}

// NewUploader создаёт загрузчик с лимитом размера в мегабайтах.
func NewUploader(store FileStore, maxUploadMB int64) *Uploader {
	return &Uploader{store: store, maxBytes: maxUploadMB * 1024 * 1024, now: time.Now}
}

// MaxBytes возвращает лимит размера одного файла.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload проверяет размер и реальный тип файла, затем сохраняет его под ключом,
// построенным keyFn из очищенного имени файла.
func (u *Uploader) Upload(ctx context.Context, fh *multipart.FileHeader, policy Policy, keyFn func(safeName string, now time.Time) string) (*StoredFile, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > u.maxBytes {
		return nil, fmt.Errorf("%w: %d байт", ErrFileTooLarge, u.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось открыть файл: %w", err)
	}
	defer src.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(src, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}

	mimeType, err := policy.Sniff(header[:n], fh.Filename)
	if err != nil {
		return nil, err
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("storage: не удалось сбросить позицию файла: %w", err)
	}

	safeName := SanitizeFilename(fh.Filename)
	key := keyFn(safeName, u.now())
	size, err := u.store.Save(ctx, key, mimeType, src)
	if err != nil {
		return nil, err
	}

	return &StoredFile{
		Key:          key,
		URL:          u.store.URL(key),
		OriginalName: fh.Filename,
		MIME:         mimeType,
		Size:         size,
	}, nil
}

// Delete удаляет файл по ключу.
func (u *Uploader) Delete(ctx context.Context, key string) error {
	return u.store.Delete(ctx, key)
}

// DeliveryKey строит ключ файла сдачи заказа: order_deliveries/<orderId>_<ts>_<name>.
func DeliveryKey(orderID uuid.UUID) func(string, time.Time) string {
	return func(name string, now time.Time) string {
		return path.Join("order_deliveries", fmt.Sprintf("%s_%d_%s", orderID, now.UnixMilli(), name))
	}
}

// ChatKey строит ключ вложения диалога.
func ChatKey(conversationID uuid.UUID) func(string, time.Time) string {
	return func(name string, now time.Time) string {
		return path.Join("chat", conversationID.String(), fmt.Sprintf("%d_%s", now.UnixMilli(), name))
	}
}

// GigImageKey строит ключ обложки услуги.
func GigImageKey(sellerID uuid.UUID) func(string, time.Time) string {
	return func(name string, now time.Time) string {
		return path.Join("gigs", sellerID.String(), fmt.Sprintf("%d%s", now.UnixNano(), strings.ToLower(filepath.Ext(name))))
	}
}

// SanitizeFilename удаляет потенциально опасные символы.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name = strings.Trim(b.String(), "._")
	if name == "" {
		name = "file"
	}
	return name
}

// cleanKey не даёт ключу выйти за пределы корня хранилища.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("storage: пустой ключ")
	}
	return cleaned, nil
}
