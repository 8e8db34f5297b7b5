package nodes

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
)

func builderFixture(t *testing.T) (*transcript.DayStore, *transcript.ChildStore) {
	t.Helper()
	return transcript.NewDayStore(t.TempDir()), transcript.NewChildStore(t.TempDir())
}

func TestTranscriptBuilderSkipsWithoutTargets(t *testing.T) {
	m := &fakeModel{}
	days, children := builderFixture(t)

	out, err := TranscriptBuilderStage(m, days, children, testCatalog(), model.AnswerConfig{})(context.Background(), newState("q"))
	require.NoError(t, err)
	assert.Empty(t, out.TranscriptPath)
	assert.Zero(t, m.videoCalls)
}

func TestTranscriptBuilderReusesTextTranscript(t *testing.T) {
	m := &fakeModel{}
	days, children := builderFixture(t)
	path, err := days.SaveText(transcript.Today(), "Day Transcript\nVideo 1: vid_1")
	require.NoError(t, err)

	st := newState("How was the day?")
	st.TargetVideos = []string{"vid_1", "vid_2"}

	out, err := TranscriptBuilderStage(m, days, children, testCatalog(), model.AnswerConfig{})(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, path, out.TranscriptPath)
	assert.Zero(t, m.videoCalls)
}

func TestTranscriptBuilderSynthesizesOncePerDay(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		return `{"activity":"block building","skills":["counting"],"students":[{"clothes":"green t-shirt"}],"distress_events":[],"evidence_times":["~02:00"]}`, nil
	}}
	days, children := builderFixture(t)
	cfg := model.AnswerConfig{PromptVersion: "v1"}

	st := newState("What did they build?")
	st.TargetVideos = []string{"vid_1", "vid_2"}

	out, err := TranscriptBuilderStage(m, days, children, testCatalog(), cfg)(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, days.PathFor(transcript.Today()), out.TranscriptPath)
	assert.Equal(t, 2, m.videoCalls)

	raw, err := os.ReadFile(out.TranscriptPath)
	require.NoError(t, err)
	var doc transcript.DayDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "v1", doc.Meta.PromptVersion)
	assert.Equal(t, "block building", doc.Videos["vid_1"].Activity)
	assert.Len(t, doc.Videos, 2)

	// A second pass the same day reuses the cached document.
	st2 := newState("Anything else?")
	st2.TargetVideos = []string{"vid_1"}
	_, err = TranscriptBuilderStage(m, days, children, testCatalog(), cfg)(context.Background(), st2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.videoCalls)
}

func TestTranscriptBuilderKeepsNarrativeOnNonJSON(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		return "The children sat in a circle and sang together.", nil
	}}
	days, children := builderFixture(t)

	st := newState("What happened?")
	st.TargetVideos = []string{"vid_1"}

	out, err := TranscriptBuilderStage(m, days, children, testCatalog(), model.AnswerConfig{})(context.Background(), st)
	require.NoError(t, err)

	raw, err := os.ReadFile(out.TranscriptPath)
	require.NoError(t, err)
	var doc transcript.DayDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "The children sat in a circle and sang together.", doc.Videos["vid_1"].Activity)
}

func TestTranscriptBuilderLoadsChildTranscript(t *testing.T) {
	m := &fakeModel{videoFn: func(prompt, uri string) (string, error) {
		return `{"activity":"play"}`, nil
	}}
	days, children := builderFixture(t)
	_, err := children.SaveByImage(transcript.Today(), "ayaan", transcript.ChildVideoEntry{
		VideoID: "vid_2", Mood: []string{"happy"}, EvidenceTimes: []string{"~01:00"},
	})
	require.NoError(t, err)

	st := newState("How was her mood?")
	st.ChildInfo = "Ayaan, wearing a green t-shirt"
	st.TargetVideos = []string{"vid_2"}

	out, err := TranscriptBuilderStage(m, days, children, testCatalog(), model.AnswerConfig{})(context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, out.ChildTranscript)
	assert.True(t, out.TranscriptPrefer)
	assert.Equal(t, "Ayaan", out.ChildTranscript.Child)
}
