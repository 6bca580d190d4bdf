package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"playpod/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverObjectName(t *testing.T) {
	name := coverObjectName("pl-1", "image/png")
	assert.True(t, strings.HasPrefix(name, "covers/pl-1/"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotEqual(t, name, coverObjectName("pl-1", "image/png"))
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension("image/jpeg"))
	assert.Equal(t, ".jpg", imageExtension("IMAGE/JPEG; charset=binary"))
	assert.Equal(t, ".webp", imageExtension("image/webp"))
	assert.Equal(t, "", imageExtension("application/octet-stream"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2*1024*1024))
}

func TestBucketStats(t *testing.T) {
	var stats BucketStats
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.add(10, early.Add(time.Hour))
	stats.add(5, early)
	assert.Equal(t, 2, stats.TotalObjects)
	assert.Equal(t, int64(15), stats.TotalSize)
	assert.Equal(t, early.Add(time.Hour), stats.LastModified)
}

func TestNewCoverStoreRequiresEndpoint(t *testing.T) {
	_, err := NewCoverStore(context.Background(), &config.Config{})
	require.Error(t, err)
}
