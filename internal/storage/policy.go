package storage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
)

// Policy сопоставляет разрешённое расширение файла с допустимыми типами,
// определёнными по магическим байтам. Пустой список означает текстовый файл.
type Policy map[string][]string

// DeliveryPolicy файлы сдачи заказа.
var DeliveryPolicy = Policy{
	".jpg":    {"jpg"},
	".jpeg":   {"jpg"},
	".png":    {"png"},
	".gif":    {"gif"},
	".pdf":    {"pdf"},
	".doc":    {"doc"},
	".docx":   {"docx", "zip"},
	".txt":    nil,
	".zip":    {"zip"},
	".rar":    {"rar"},
	".mp4":    {"mp4"},
	".mov":    {"mov", "mp4"},
	".avi":    {"avi"},
	".psd":    {"psd"},
	".ai":     {"pdf", "ps"},
	".sketch": {"zip"},
}

// ImagePolicy изображения услуг.
var ImagePolicy = Policy{
	".jpg":  {"jpg"},
	".jpeg": {"jpg"},
	".png":  {"png"},
	".gif":  {"gif"},
	".webp": {"webp"},
}

// Merge возвращает объединение политик.
func (p Policy) Merge(other Policy) Policy {
	out := make(Policy, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = append(out[k], v...)
	}
	return out
}

// Extensions возвращает отсортированный список разрешённых расширений.
func (p Policy) Extensions() []string {
	exts := make([]string, 0, len(p))
	for ext := range p {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Sniff проверяет расширение и реальный тип содержимого, возвращает MIME.
func (p Policy) Sniff(header []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted, ok := p[ext]
	if !ok {
		return "", fmt.Errorf("%w. Разрешены: %s", ErrUnsupportedType, strings.Join(p.Extensions(), ", "))
	}

	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		if len(accepted) == 0 && utf8.Valid(header) {
			return "text/plain", nil
		}
		return "", fmt.Errorf("%w: не удалось определить тип файла", ErrUnsupportedType)
	}

	for _, want := range accepted {
		if kind.Extension == want {
			return kind.MIME.Value, nil
		}
	}
	return "", fmt.Errorf("%w: расширение (%s) не соответствует реальному типу (.%s)", ErrUnsupportedType, ext, kind.Extension)
}
