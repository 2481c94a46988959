package sqlutil

import "time"

// KeysetCursor identifies a row's position for forward/backward keyset
// pagination over (created_at, id) columns. driftprofile.Store's
// ListBySpace keeps its own driftprofile.Cursor and does not use this
// type or NextCursor.
type KeysetCursor struct {
	CreatedAt time.Time
	ID        string
}

// NextCursor returns the cursor of the last row in a page when the page
// was truncated to limit (i.e. more rows exist), or nil when it wasn't.
func NextCursor(ids []string, createdAts []time.Time, limit int) *KeysetCursor {
	if len(ids) <= limit {
		return nil
	}
	last := limit - 1
	return &KeysetCursor{CreatedAt: createdAts[last], ID: ids[last]}
}
