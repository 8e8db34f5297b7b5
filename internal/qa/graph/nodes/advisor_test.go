package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/model"
)

func followupState(latest string) *model.RequestState {
	st := newState("How was her day?")
	st.FinalAnswer = "She had a calm, happy day."
	st.History = []model.ConversationMessage{
		model.UserMessage("How was her day?"),
		model.AssistantMessage("She had a calm, happy day."),
		model.UserMessage(latest),
	}
	return st
}

func TestFollowupAdvisorRoutesTranscriptQuestions(t *testing.T) {
	m := &fakeModel{
		textFn: func(string) (string, error) { return "Happy to dig into that.", nil },
		jsonFn: func(string) (map[string]any, error) {
			return map[string]any{"route": model.RouteTranscriptChild}, nil
		},
	}
	st := followupState("Did she eat all her lunch?")

	out, err := FollowupAdvisorStage(m)(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, "Happy to dig into that.", out.FollowupResponse)
	assert.Equal(t, model.RouteTranscriptChild, out.FollowupRoute)
	assert.Equal(t, "Did she eat all her lunch?", out.FollowupNextQuestion)

	next, err := NewFollowupAdvisorCondition()(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, NodeFollowupReentry, next)
}

func TestFollowupAdvisorParentingHelpEndsRun(t *testing.T) {
	m := &fakeModel{
		textFn: func(string) (string, error) { return "A consistent bedtime routine can help.", nil },
		jsonFn: func(string) (map[string]any, error) {
			return map[string]any{"route": model.RouteParentingHelp}, nil
		},
	}
	st := followupState("Any tips for smoother bedtimes?")

	out, err := FollowupAdvisorStage(m)(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, model.RouteParentingHelp, out.FollowupRoute)
	assert.Empty(t, out.FollowupNextQuestion)

	next, err := NewFollowupAdvisorCondition()(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, compose.END, next)
}

func TestFollowupAdvisorClearsInvalidRoute(t *testing.T) {
	m := &fakeModel{
		textFn: func(string) (string, error) { return "Sure.", nil },
		jsonFn: func(string) (map[string]any, error) {
			return map[string]any{"route": "weather_report"}, nil
		},
	}
	st := followupState("Anything else?")

	out, err := FollowupAdvisorStage(m)(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, out.FollowupRoute)

	next, err := NewFollowupAdvisorCondition()(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, compose.END, next)
}

func TestFollowupAdvisorFallbackResponse(t *testing.T) {
	m := &fakeModel{
		textFn: func(string) (string, error) { return "", errors.New("model down") },
		jsonFn: func(string) (map[string]any, error) { return nil, errors.New("model down") },
	}
	st := followupState("Did she nap?")

	out, err := FollowupAdvisorStage(m)(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, AdvisorFallbackAnswer, out.FollowupResponse)
	assert.Empty(t, out.FollowupRoute)
}
