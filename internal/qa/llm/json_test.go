package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObjectPlain(t *testing.T) {
	obj, err := ExtractJSONObject(`{"videos": ["vid_1", "vid_2"]}`)
	require.NoError(t, err)
	assert.Len(t, obj["videos"], 2)
}

func TestExtractJSONObjectMarkdownFenced(t *testing.T) {
	obj, err := ExtractJSONObject("Here you go:\n```json\n{\"prefer_transcript\": true}\n```\n")
	require.NoError(t, err)
	assert.Equal(t, true, obj["prefer_transcript"])
}

func TestExtractJSONObjectProseWrapped(t *testing.T) {
	obj, err := ExtractJSONObject(`Sure! Based on the question, {"requires_child": false} is my answer.`)
	require.NoError(t, err)
	assert.Equal(t, false, obj["requires_child"])
}

func TestExtractJSONObjectPicksLongestSpan(t *testing.T) {
	obj, err := ExtractJSONObject(`{"a":1} and then {"can_answer": true, "confidence": 0.8, "note": "longer"}`)
	require.NoError(t, err)
	assert.Equal(t, true, obj["can_answer"])
}

func TestExtractJSONObjectHandlesBracesInStrings(t *testing.T) {
	obj, err := ExtractJSONObject(`{"summary": "built a {tower} today", "ok": true}`)
	require.NoError(t, err)
	assert.Equal(t, "built a {tower} today", obj["summary"])
}

func TestExtractJSONObjectRejectsArrays(t *testing.T) {
	_, err := ExtractJSONObject(`["vid_1", "vid_2"]`)
	require.Error(t, err)
}

func TestExtractJSONObjectNoJSON(t *testing.T) {
	_, err := ExtractJSONObject("no structured data here")
	require.Error(t, err)
}

func TestExtractJSONObjectUnbalanced(t *testing.T) {
	_, err := ExtractJSONObject(`{"videos": ["vid_1"`)
	require.Error(t, err)
}
