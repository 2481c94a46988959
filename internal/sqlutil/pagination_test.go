package sqlutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextCursorTruncated(t *testing.T) {
	now := time.Now()
	ids := []string{"a", "b", "c"}
	createdAts := []time.Time{now, now.Add(time.Second), now.Add(2 * time.Second)}

	cur := NextCursor(ids, createdAts, 2)
	assert.NotNil(t, cur)
	assert.Equal(t, "b", cur.ID)
}

func TestNextCursorNotTruncated(t *testing.T) {
	now := time.Now()
	ids := []string{"a", "b"}
	createdAts := []time.Time{now, now.Add(time.Second)}

	cur := NextCursor(ids, createdAts, 2)
	assert.Nil(t, cur)
}
