package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestPolicySniff(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		header   []byte
		wantMIME string
		wantErr  bool
	}{
		{name: "png", filename: "shot.PNG", header: pngHeader, wantMIME: "image/png"},
		{name: "text", filename: "notes.txt", header: []byte("hello world"), wantMIME: "text/plain"},
		{name: "disguised", filename: "photo.jpg", header: pngHeader, wantErr: true},
		{name: "extension not allowed", filename: "run.exe", header: []byte("MZ"), wantErr: true},
		{name: "unknown binary", filename: "archive.zip", header: []byte{0x00, 0x01, 0x02}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeliveryPolicy.Sniff(tt.header, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, got)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "my_file__1_.pdf", SanitizeFilename("my file (1).pdf"))
	assert.Equal(t, "file", SanitizeFilename(".."))
}

func TestUploader_SavesDeliveryFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media", 10)
	require.NoError(t, err)
	u := NewUploader(store, 10)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }

	orderID := uuid.New()
	fh := multipartFile(t, "design v2.png", append(pngHeader, make([]byte, 100)...))

	stored, err := u.Upload(context.Background(), fh, DeliveryPolicy, DeliveryKey(orderID))
	require.NoError(t, err)

	wantKey := "order_deliveries/" + orderID.String() + "_1700000000000_design_v2.png"
	assert.Equal(t, wantKey, stored.Key)
	assert.Equal(t, "/media/"+wantKey, stored.URL)
	assert.Equal(t, "image/png", stored.MIME)
	assert.EqualValues(t, len(pngHeader)+100, stored.Size)

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(wantKey)))
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), stored.Key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(wantKey)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploader_RejectsOversizedFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media", 1)
	require.NoError(t, err)
	u := NewUploader(store, 1)

	fh := multipartFile(t, "big.txt", []byte(strings.Repeat("a", 1024*1024+1)))
	_, err = u.Upload(context.Background(), fh, DeliveryPolicy, DeliveryKey(uuid.New()))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLocalStore_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media", 1)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}
