package nodes

import (
	"context"
	"errors"
	"sync"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/model"
)

// fakeModel scripts the adapter per call kind. A nil func fails the call,
// which doubles as proof that a stage did not touch the model.
type fakeModel struct {
	mu         sync.Mutex
	textCalls  int
	jsonCalls  int
	videoCalls int

	textFn  func(prompt string) (string, error)
	jsonFn  func(prompt string) (map[string]any, error)
	videoFn func(prompt, uri string) (string, error)
}

var errNoScript = errors.New("no scripted response")

func (m *fakeModel) CallText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.textCalls++
	m.mu.Unlock()
	if m.textFn == nil {
		return "", errNoScript
	}
	return m.textFn(prompt)
}

func (m *fakeModel) CallJSON(ctx context.Context, prompt string) (map[string]any, error) {
	m.mu.Lock()
	m.jsonCalls++
	m.mu.Unlock()
	if m.jsonFn == nil {
		return nil, errNoScript
	}
	return m.jsonFn(prompt)
}

func (m *fakeModel) CallVideo(ctx context.Context, prompt, remoteURI string) (string, error) {
	m.mu.Lock()
	m.videoCalls++
	m.mu.Unlock()
	if m.videoFn == nil {
		return "", errNoScript
	}
	return m.videoFn(prompt, remoteURI)
}

func (m *fakeModel) CallVideoWithImage(ctx context.Context, prompt, remoteURI, imagePath string) (string, error) {
	return m.CallVideo(ctx, prompt, remoteURI)
}

func testCatalog() *catalog.Catalog {
	cat, err := catalog.New([]catalog.Video{
		{ID: "vid_1", URI: "gs://bucket/day/vid_1.mp4", SessionType: "Circle Time", StartTime: "09:00", EndTime: "09:25", Description: "Morning circle"},
		{ID: "vid_2", URI: "gs://bucket/day/vid_2.mp4", SessionType: "Small Group", StartTime: "09:30", EndTime: "10:00", Description: "Counting blocks"},
		{ID: "vid_3", URI: "gs://bucket/day/vid_3.mp4", SessionType: "Outdoor Play", StartTime: "10:15", EndTime: "11:00", Description: "Yard play"},
		{ID: "vid_4", URI: "gs://bucket/day/vid_4.mp4", SessionType: "Lunch", StartTime: "11:30", EndTime: "12:00", Description: "Lunch tables"},
	})
	if err != nil {
		panic(err)
	}
	return cat
}

func newState(question string) *model.RequestState {
	return model.NewRequestState(question, nil)
}
