package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessRecordStartsProcessing(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rec := NewProcessRecord("7f7d8f4e-0b0c-4a55-9d1f-3f2f10a1c0de", now)

	assert.Equal(t, StatusProcessing, rec.Status)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now, rec.UpdatedAt)
	assert.Nil(t, rec.FinishedAt)
}

func TestStatusTransitionsOnlyMoveForward(t *testing.T) {
	assert.True(t, StatusProcessing.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusFailed))
	assert.False(t, StatusProcessing.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusFailed.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusFailed))
}

func TestInsertProcessQuery(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	query, args, err := insertProcessQuery(NewProcessRecord("p-1", now))
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO processes (process_id,status,created_at,updated_at,finished_at) VALUES ($1,$2,$3,$4,$5)",
		query)
	require.Len(t, args, 5)
	assert.Equal(t, "p-1", args[0])
	assert.Equal(t, "PROCESSING", args[1])
	assert.Equal(t, now, args[2])
	assert.Equal(t, now, args[3])
	assert.Nil(t, args[4])
}

func TestInsertMetadataQuery(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	query, args, err := insertMetadataQuery(MetadataRecord{
		MetadataID: "m-1",
		ProcessID:  "p-1",
		OwnerEmail: "testuser@example.com",
		OwnerName:  "testuser",
		StorageKey: "videos/p-1/p-1-source.mp4",
		FrameRate:  2,
		CreatedAt:  now,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO process_metadata (metadata_id,process_id,owner_email,owner_name,storage_key,frame_rate,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)",
		query)
	assert.Equal(t, []any{"m-1", "p-1", "testuser@example.com", "testuser", "videos/p-1/p-1-source.mp4", 2, now}, args)
}

func TestSelectProcessQuery(t *testing.T) {
	query, args, err := selectProcessQuery("p-1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT process_id, status, created_at, updated_at, finished_at FROM processes WHERE process_id = $1", query)
	assert.Equal(t, []any{"p-1"}, args)
}
