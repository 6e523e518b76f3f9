package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	pid := "0b6f3c52-3f0e-4b8f-9a57-6f0a3c1d2e4f"

	assert.Equal(t, "videos/"+pid+"/"+pid+"-source.mp4", KeyFlat.StorageKey(pid, "testuser"))
	assert.Equal(t, "videos/testuser/"+pid+"/"+pid+"-source.mp4", KeyPerUser.StorageKey(pid, "testuser"))

	// Same inputs, same key.
	assert.Equal(t, KeyFlat.StorageKey(pid, "a"), KeyFlat.StorageKey(pid, "b"))
}

func TestParseKeyStrategy(t *testing.T) {
	for raw, want := range map[string]KeyStrategy{"": KeyFlat, "flat": KeyFlat, " PER_USER ": KeyPerUser} {
		got, err := ParseKeyStrategy(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseKeyStrategy("by_date")
	assert.Error(t, err)
}
