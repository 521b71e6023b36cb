package sharding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardStability(t *testing.T) {
	first := Shard(1234, 1000)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Shard(1234, 1000))
	}
	assert.Equal(t, "1000-1999", first)
}

func TestShardPartitionsIDSpace(t *testing.T) {
	// ids in the same bucket share a folder
	assert.Equal(t, Shard(1000, 1000), Shard(1999, 1000))
	// ids in adjacent buckets do not
	assert.NotEqual(t, Shard(1999, 1000), Shard(2000, 1000))
	// no gaps at the boundary
	assert.Equal(t, "0-999", Shard(0, 1000))
	assert.Equal(t, "0-999", Shard(999, 1000))
	assert.Equal(t, "2000-2999", Shard(2000, 1000))
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "avatars/1000-1999/1234.png", ObjectPath("avatars", 1234, 1000, "", "png", true))
	assert.Equal(t, "avatars/1000-1999/1234-thumb.jpg", ObjectPath("avatars", 1234, 1000, "thumb", "jpg", true))
	assert.Equal(t, "avatars/1234.png", ObjectPath("avatars", 1234, 1000, "", "png", false))
	// leading dot on the extension collapses
	assert.Equal(t, "avatars/1000-1999/1234.png", ObjectPath("avatars", 1234, 1000, "", ".png", true))
}
