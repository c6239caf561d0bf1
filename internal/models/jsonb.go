package models

import (
	"database/sql/driver"
	"fmt"
)

// RawJSON: произвольный JSON, хранящийся в nullable JSONB колонке.
type RawJSON []byte

// Value пишет NULL для пустого значения и текст JSON иначе.
func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan читает JSONB, NULL превращается в пустое значение.
func (j *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = RawJSON(v)
	default:
		return fmt.Errorf("models: неожиданный тип JSON %T", src)
	}
	return nil
}

// MarshalJSON встраивает значение как есть.
func (j RawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON сохраняет копию входных байтов.
func (j *RawJSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}
