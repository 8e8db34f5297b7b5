package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStoreSaveAndExists(t *testing.T) {
	s := NewDayStore(t.TempDir())
	doc := &DayDocument{
		Date: "2026-08-29",
		Videos: map[string]DaySection{
			"vid_1": {Activity: "circle time", Skills: []string{"counting"}},
		},
		Meta: DayMeta{PromptVersion: "v1"},
	}

	path, err := s.Save(doc)
	require.NoError(t, err)
	assert.Equal(t, s.PathFor("2026-08-29"), path)
	assert.True(t, s.Exists("2026-08-29"))
	assert.False(t, s.Exists("2026-08-30"))
}

func TestDayStoreLoadRawDetectsJSON(t *testing.T) {
	s := NewDayStore(t.TempDir())
	path, err := s.Save(&DayDocument{Date: "2026-08-29", Videos: map[string]DaySection{}})
	require.NoError(t, err)

	content, isJSON, err := s.LoadRaw(path)
	require.NoError(t, err)
	assert.True(t, isJSON)
	assert.Contains(t, content, `"date":"2026-08-29"`)
}

func TestDayStoreLoadRawKeepsPlainText(t *testing.T) {
	s := NewDayStore(t.TempDir())
	path, err := s.SaveText("2026-08-29", "Day Transcript - 2026-08-29\n\nVideo 1: vid_1")
	require.NoError(t, err)

	content, isJSON, err := s.LoadRaw(path)
	require.NoError(t, err)
	assert.False(t, isJSON)
	assert.Contains(t, content, "Video 1: vid_1")
}

func TestDayStoreLatestPicksMostRecent(t *testing.T) {
	dir := t.TempDir()
	s := NewDayStore(dir)

	old := filepath.Join(dir, "transcript_2026-08-27.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	fresh, err := s.SaveText("2026-08-29", "latest day")
	require.NoError(t, err)

	got, ok := s.Latest()
	assert.True(t, ok)
	assert.Equal(t, fresh, got)
}

func TestDayStoreLatestIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	_, ok := NewDayStore(dir).Latest()
	assert.False(t, ok)
}
