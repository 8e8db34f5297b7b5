package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
)

func TestChildIdentifierRequestsClarification(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return map[string]any{"requires_child": true}, nil
	}}
	st := newState("Did she cry during nap time?")

	out, err := ChildIdentifierStage(m)(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, out.WaitingForChildInfo)
	assert.Equal(t, "Did she cry during nap time?", out.OriginalQuestion)
	assert.Equal(t, prompts.ChildIdentifierQuestion(), out.UserQuestion)
	require.Len(t, out.History, 1)
	assert.Equal(t, "assistant", out.History[0].Role)

	next, err := NewChildIdentifierCondition()(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, compose.END, next)
}

func TestChildIdentifierSkipsWhenNotRequired(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return map[string]any{"requires_child": false}, nil
	}}
	st := newState("What activities did the class do today?")

	out, err := ChildIdentifierStage(m)(context.Background(), st)
	require.NoError(t, err)

	assert.False(t, out.WaitingForChildInfo)
	assert.Empty(t, out.OriginalQuestion)

	next, err := NewChildIdentifierCondition()(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, NodeVideoPicker, next)
}

func TestChildIdentifierDefaultsToRequireOnFailure(t *testing.T) {
	m := &fakeModel{jsonFn: func(string) (map[string]any, error) {
		return nil, errors.New("model down")
	}}
	st := newState("How was the day?")

	out, err := ChildIdentifierStage(m)(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, out.WaitingForChildInfo)
}

func TestChildIdentifierResumesWithChildInfo(t *testing.T) {
	m := &fakeModel{}
	st := newState("placeholder")
	st.ChildInfo = "Ayaan, wearing a green t-shirt"
	st.OriginalQuestion = "Did she cry during nap time?"
	st.UserQuestion = prompts.ChildIdentifierQuestion()
	st.WaitingForChildInfo = true

	out, err := ChildIdentifierStage(m)(context.Background(), st)
	require.NoError(t, err)

	assert.False(t, out.WaitingForChildInfo)
	assert.Equal(t, "Did she cry during nap time?", out.UserQuestion)
	assert.Zero(t, m.jsonCalls)
}
