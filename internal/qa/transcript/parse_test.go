package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDayText = `Day Transcript - 2026-08-29

================================================================================
Video 1: vid_1
  Session: Circle Time

The class gathered on the rug for songs.
Students:
green t-shirt, yellow dress, striped overalls

================================================================================
Video 2: vid_2
  Session: Small Group

Counting activity. Students: blue hoodie, green t-shirt

================================================================================
Video 3: vid_3
  Session: Nap Time

Students:
No students are present.
`

func TestParseDayText(t *testing.T) {
	sections := ParseDayText(sampleDayText)
	require.Len(t, sections, 3)

	assert.Equal(t, "vid_1", sections[0].VideoID)
	assert.Equal(t, []string{"green t-shirt", "yellow dress", "striped overalls"}, sections[0].Students)

	assert.Equal(t, "vid_2", sections[1].VideoID)
	assert.Equal(t, []string{"blue hoodie", "green t-shirt"}, sections[1].Students)

	assert.Equal(t, "vid_3", sections[2].VideoID)
	assert.Empty(t, sections[2].Students)
}

func TestParseDayTextNoSections(t *testing.T) {
	assert.Empty(t, ParseDayText("nothing here"))
}
