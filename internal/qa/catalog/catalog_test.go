package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVideos() []Video {
	return []Video{
		{ID: "vid_1", URI: "gs://bucket/day/vid_1.mp4", SessionType: "circle time"},
		{ID: "vid_2", URI: "https://example.com/vid_2.mp4", SessionType: "free play"},
	}
}

func TestNewValidCatalog(t *testing.T) {
	c, err := New(testVideos())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("vid_1"))
	assert.False(t, c.Has("vid_9"))

	uri, err := c.URI("vid_2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/vid_2.mp4", uri)

	meta, err := c.Metadata("vid_1")
	require.NoError(t, err)
	assert.Equal(t, "circle time", meta.SessionType)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	vids := testVideos()
	vids = append(vids, Video{ID: "vid_1", URI: "gs://bucket/dup.mp4"})
	_, err := New(vids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsBadURIs(t *testing.T) {
	_, err := New([]Video{{ID: "vid_1", URI: "ftp://nope/vid.mp4"}})
	require.Error(t, err)

	_, err = New([]Video{{ID: "vid_1", URI: ""}})
	require.Error(t, err)
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.yaml")
	content := `videos:
  - id: vid_1
    gcs_uri: gs://bucket/day/vid_1.mp4
    session-type: circle time
    start-time: "09:00"
    end-time: "09:20"
    act-description: Morning circle with songs
  - id: vid_2
    gcs_uri: gs://bucket/day/vid_2.mp4
    session-type: outdoor play
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	list := c.List()
	assert.Equal(t, "vid_1", list[0].ID)
	assert.Equal(t, "Morning circle with songs", list[0].Description)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
