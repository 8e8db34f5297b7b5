package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
)

func TestFollowupReentryRewritesState(t *testing.T) {
	st := newState("How was her day?")
	st.ChildInfo = "Ayaan, wearing a green t-shirt"
	st.ChildTranscript = &transcript.ChildDocument{Child: "Ayaan"}
	st.FinalAnswer = "She had a good day."
	st.History = []model.ConversationMessage{model.UserMessage("How was her day?")}
	st.FollowupRoute = model.RouteTranscriptChild
	st.FollowupNextQuestion = "Did she eat all her lunch?"
	st.TargetVideos = []string{"vid_1"}
	st.TargetQuestion = "old refined question"
	st.TranscriptPath = "/tmp/transcript.json"
	st.TranscriptPrefer = true
	st.TranscriptCanAnswer = true
	st.UsedTranscript = true
	st.PerVideoAnswers = map[string]string{"vid_1": "old"}

	out, err := FollowupReentryStage()(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, "Did she eat all her lunch?", out.UserQuestion)
	assert.Empty(t, out.FollowupRoute)
	assert.Empty(t, out.FollowupNextQuestion)
	assert.Empty(t, out.TargetVideos)
	assert.Empty(t, out.TargetQuestion)
	assert.Empty(t, out.TranscriptPath)
	assert.False(t, out.TranscriptPrefer)
	assert.False(t, out.TranscriptCanAnswer)
	assert.False(t, out.UsedTranscript)
	assert.Nil(t, out.PerVideoAnswers)

	// Identity, history, child data, and the prior answer carry forward.
	assert.Equal(t, "Ayaan, wearing a green t-shirt", out.ChildInfo)
	assert.NotNil(t, out.ChildTranscript)
	assert.Equal(t, "She had a good day.", out.FinalAnswer)
	assert.Len(t, out.History, 1)
}

func TestFollowupReentryKeepsQuestionWhenUnset(t *testing.T) {
	st := newState("How was her day?")
	out, err := FollowupReentryStage()(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "How was her day?", out.UserQuestion)
}

func TestHelperFirstSentence(t *testing.T) {
	assert.Equal(t, "First part.", firstSentence("First part. Second part."))
	assert.Equal(t, "No period here", firstSentence("  No period here "))
	assert.Equal(t, "Ends with period.", firstSentence("Ends with period."))
}

func TestHelperTruncateWords(t *testing.T) {
	assert.Equal(t, "a b c", truncateWords(" a b c ", 5))
	assert.Equal(t, "a b...", truncateWords("a b c d", 2))
}
