package repository

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uuidArray готовит срез идентификаторов для параметра = ANY($n).
func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// pageArgs нормализует limit/offset для выборок со страницами.
func pageArgs(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
