package store

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// cursorPayload is the opaque (created_at, id) tuple spec.md §4.1
// describes as the pagination cursor. It is base64-encoded so that
// callers can pass it through an opaque query-string token without
// caring about its shape.
type cursorPayload struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"i"`
}

// decodeCursor turns an opaque cursor string into the (created_at, id)
// tuple a keyset-pagination WHERE clause compares against. An empty or
// malformed cursor decodes to the zero tuple, which every row sorts
// after, so the first page is just "no cursor".
func decodeCursor(cursor string) (time.Time, uuid.UUID) {
	if cursor == "" {
		return time.Time{}, uuid.Nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return time.Time{}, uuid.Nil
	}
	return p.CreatedAt, p.ID
}

func encodeCursor(createdAt time.Time, id uuid.UUID) string {
	raw, _ := json.Marshal(cursorPayload{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// buildPage wraps items as a Page and, when the page is full, derives
// the next cursor from its last row, per keyField. Queries always fetch pageSize rows
// exactly (the WHERE clause already applies the cursor), so reaching
// fewer than pageSize rows means this is the last page and NextCursor
// stays empty; spec.md §4.1 requires empty-page-skipping, which is the
// caller's job when walking NextCursor in a loop, not this function's.
func buildPage[T any](items []T, pageSize int, keyField func(T) (time.Time, uuid.UUID)) Page[T] {
	page := Page[T]{Items: items}
	if len(items) == pageSize && pageSize > 0 {
		createdAt, id := keyField(items[len(items)-1])
		page.NextCursor = encodeCursor(createdAt, id)
	}
	return page
}
