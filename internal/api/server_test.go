package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/conversation"
	"github.com/daycare-qa/server/internal/qa/evidence"
	"github.com/daycare-qa/server/internal/qa/graph"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
)

// stubModel answers every stage deterministically so handler tests run the
// real compiled graph without network calls.
type stubModel struct{}

func (stubModel) CallText(ctx context.Context, prompt string) (string, error) {
	return "She had a happy, busy morning.", nil
}

func (stubModel) CallJSON(ctx context.Context, prompt string) (map[string]any, error) {
	switch {
	case strings.Contains(prompt, "requires_child"):
		return map[string]any{"requires_child": false}, nil
	case strings.Contains(prompt, "prefer_transcript"):
		return map[string]any{"prefer_transcript": false}, nil
	case strings.Contains(prompt, "can_answer"):
		return map[string]any{"can_answer": false, "confidence": 0.0}, nil
	case strings.Contains(prompt, `"route"`):
		return map[string]any{"route": model.RouteParentingHelp}, nil
	default:
		return map[string]any{"videos": []any{"vid_1"}}, nil
	}
}

func (stubModel) CallVideo(ctx context.Context, prompt, remoteURI string) (string, error) {
	return "She painted at the easel.", nil
}

func (stubModel) CallVideoWithImage(ctx context.Context, prompt, remoteURI, imagePath string) (string, error) {
	return "", nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.New([]catalog.Video{
		{ID: "vid_1", URI: "gs://bucket/day/vid_1.mp4", SessionType: "Circle Time"},
	})
	require.NoError(t, err)

	runner, err := graph.New(context.Background(), &graph.Config{
		Model:    stubModel{},
		Catalog:  cat,
		Days:     transcript.NewDayStore(t.TempDir()),
		Children: transcript.NewChildStore(t.TempDir()),
		Answer:   model.AnswerConfig{MaxWords: 140, ChildThreshold: 0.5, DayThreshold: 0.6, MaxVideos: 5},
	})
	require.NoError(t, err)

	extractor := &evidence.Extractor{
		Catalog:  cat,
		Children: transcript.NewChildStore(t.TempDir()),
	}
	return NewServer(runner, extractor, conversation.NewMemoryRepository())
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAskEndpoint(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Handler(), "/ask", map[string]any{
		"question":   "What did the class do this morning?",
		"child_info": "Ayaan, wearing a green t-shirt",
		"session_id": "s1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RequestID           string   `json:"request_id"`
		FinalAnswer         string   `json:"final_answer"`
		WaitingForChildInfo bool     `json:"waiting_for_child_info"`
		TargetVideos        []string `json:"target_videos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.False(t, resp.WaitingForChildInfo)
	assert.Equal(t, "She had a happy, busy morning.", resp.FinalAnswer)
	assert.Equal(t, []string{"vid_1"}, resp.TargetVideos)
}

func TestAskEndpointRequiresQuestion(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Handler(), "/ask", map[string]any{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowupEndpointParentingHelp(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Handler(), "/followup", map[string]any{
		"question":     "Any tips for bedtime?",
		"final_answer": "She had a calm day.",
		"history": []map[string]string{
			{"role": "user", "content": "How was her day?"},
			{"role": "assistant", "content": "She had a calm day."},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FollowupResponse string `json:"followup_response"`
		FollowupRoute    string `json:"followup_route"`
		FinalAnswer      string `json:"final_answer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "She had a happy, busy morning.", resp.FollowupResponse)
	assert.Equal(t, model.RouteParentingHelp, resp.FollowupRoute)
	assert.Empty(t, resp.FinalAnswer)
}
