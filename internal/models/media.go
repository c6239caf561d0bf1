package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Attachment описывает загруженный файл, прикреплённый к сообщению.
type Attachment struct {
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	FileURL      string    `json:"file_url"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	PublicID     string    `json:"public_id,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Attachments хранится в jsonb-колонке.
type Attachments []Attachment

// Value сериализует вложения для записи в базу.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan читает вложения из jsonb.
func (a *Attachments) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: неожиданный тип вложений %T", src)
	}
	return json.Unmarshal(raw, a)
}
