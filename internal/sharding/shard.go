package sharding

import (
	"fmt"
	"strings"
)

// Shard maps an owner identifier to its storage folder name. Folders
// partition the id space into contiguous ranges of bucketSize ids, so the
// folder for id 1234 with bucketSize 1000 is "1000-1999". Same inputs
// always yield the same folder.
func Shard(id int64, bucketSize int64) string {
	if bucketSize <= 0 {
		bucketSize = 1000
	}
	start := (id / bucketSize) * bucketSize
	end := start + bucketSize - 1
	return fmt.Sprintf("%d-%d", start, end)
}

// ObjectPath builds the storage path for an owner's asset. variant is
// empty for the original; extension is given without the leading dot.
// With sharding disabled the file sits directly under prefix (legacy flat
// layout, still readable for old assets).
func ObjectPath(prefix string, id int64, bucketSize int64, variant, extension string, useSharding bool) string {
	name := fmt.Sprintf("%d", id)
	if variant != "" {
		name += "-" + variant
	}
	if extension != "" {
		name += "." + strings.TrimPrefix(extension, ".")
	}
	if useSharding {
		return fmt.Sprintf("%s/%s/%s", prefix, Shard(id, bucketSize), name)
	}
	return fmt.Sprintf("%s/%s", prefix, name)
}
