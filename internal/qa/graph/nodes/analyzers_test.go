package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoAnalyzersFanOut(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		return "Observed at " + uri, nil
	}}

	st := newState("What did she build?")
	st.TargetVideos = []string{"vid_1", "vid_2"}

	out, err := VideoAnalyzersStage(m, testCatalog())(context.Background(), st)
	require.NoError(t, err)

	require.Len(t, out.PerVideoAnswers, 2)
	assert.Equal(t, "Observed at gs://bucket/day/vid_1.mp4", out.PerVideoAnswers["vid_1"])
	assert.Equal(t, "Observed at gs://bucket/day/vid_2.mp4", out.PerVideoAnswers["vid_2"])
	assert.Equal(t, 2, m.videoCalls)
}

func TestVideoAnalyzersIsolateFailures(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		if strings.Contains(uri, "vid_2") {
			return "", errors.New("model down")
		}
		return "She joined the counting game.", nil
	}}

	st := newState("Did she join the game?")
	st.TargetVideos = []string{"vid_1", "vid_2"}

	out, err := VideoAnalyzersStage(m, testCatalog())(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, "She joined the counting game.", out.PerVideoAnswers["vid_1"])
	assert.Equal(t, NoEvidenceAnswer, out.PerVideoAnswers["vid_2"])
}

func TestVideoAnalyzersHandleUnknownVideo(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		return "ok", nil
	}}

	st := newState("q")
	st.TargetVideos = []string{"vid_99"}

	out, err := VideoAnalyzersStage(m, testCatalog())(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, NoEvidenceAnswer, out.PerVideoAnswers["vid_99"])
}

func TestVideoAnalyzersWithoutTargets(t *testing.T) {
	m := &fakeModel{}
	out, err := VideoAnalyzersStage(m, testCatalog())(context.Background(), newState("q"))
	require.NoError(t, err)
	assert.Empty(t, out.PerVideoAnswers)
	assert.NotNil(t, out.PerVideoAnswers)
}
