package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateAssignsIDAndTimestamps(t *testing.T) {
	f := &File{}
	require.NoError(t, f.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, f.ID)
	assert.False(t, f.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, f.CreatedAt.Location())
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)
}

func TestBeforeCreateKeepsCallerID(t *testing.T) {
	id := uuid.New()
	f := &File{ID: id}
	require.NoError(t, f.BeforeCreate(nil))
	assert.Equal(t, id, f.ID)
}

func TestViewOmitsDeletedAt(t *testing.T) {
	f := File{ID: uuid.New(), FileSize: 7, FileOldName: "a.txt", FileExtension: ".txt"}
	b, err := json.Marshal(f.View())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.NotContains(t, got, "deleted_at")
	assert.Equal(t, "a.txt", got["file_old_name"])
	assert.EqualValues(t, 7, got["file_size"])
}

func TestViewsNeverNil(t *testing.T) {
	v := Views(nil)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}
