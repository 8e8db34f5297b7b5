package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/model"
)

func TestVideoPickerFiltersAndDedupes(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return map[string]any{"videos": []any{"vid_2", "vid_2", "vid_9", "vid_1"}}, nil
	}}
	cfg := model.AnswerConfig{MaxVideos: 5, FallbackVideos: 3}

	out, err := VideoPickerStage(m, testCatalog(), cfg)(context.Background(), newState("How was lunch?"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vid_2", "vid_1"}, out.TargetVideos)
}

func TestVideoPickerCapsSelection(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return map[string]any{"videos": []any{"vid_1", "vid_2", "vid_3", "vid_4"}}, nil
	}}
	cfg := model.AnswerConfig{MaxVideos: 2, FallbackVideos: 3}

	out, err := VideoPickerStage(m, testCatalog(), cfg)(context.Background(), newState("How was the day?"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vid_1", "vid_2"}, out.TargetVideos)
}

func TestVideoPickerFallsBackOnModelFailure(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return nil, errors.New("model down")
	}}
	cfg := model.AnswerConfig{MaxVideos: 5, FallbackVideos: 3}

	out, err := VideoPickerStage(m, testCatalog(), cfg)(context.Background(), newState("How was the day?"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vid_1", "vid_2", "vid_3"}, out.TargetVideos)
}

func TestVideoPickerFallsBackOnEmptySelection(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return map[string]any{"videos": []any{"vid_99"}}, nil
	}}
	cfg := model.AnswerConfig{MaxVideos: 5}

	out, err := VideoPickerStage(m, testCatalog(), cfg)(context.Background(), newState("How was the day?"))
	require.NoError(t, err)
	// FallbackVideos unset defaults to the first three catalog entries.
	assert.Equal(t, []string{"vid_1", "vid_2", "vid_3"}, out.TargetVideos)
}
