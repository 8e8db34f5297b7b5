package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Extractor is the evidence stage. It runs outside the conversation graph,
// invoked directly against the last completed state when a follow-up routes
// to evidence. Missing evidence times produce an explicit empty result with
// a descriptive message, never an error.
type Extractor struct {
	Catalog  *catalog.Catalog
	Children *transcript.ChildStore
	Snipper  *Snipper
}

// Run extracts clips for one video and records the outcome on the state.
// An empty videoID picks the best candidate from the state.
func (e *Extractor) Run(ctx context.Context, st *model.RequestState, videoID string) *model.RequestState {
	id := e.resolveVideo(st, videoID)
	if id == "" {
		st.EvidenceClips = map[string][]string{}
		st.EvidenceMessage = "No video available for evidence extraction."
		return st
	}

	uri, err := e.Catalog.URI(id)
	if err != nil {
		st.EvidenceClips = map[string][]string{id: {}}
		st.EvidenceMessage = fmt.Sprintf("Video %s is not in the catalog.", id)
		return st
	}

	times := e.evidenceTimes(st, id)
	if len(times) == 0 {
		st.EvidenceClips = map[string][]string{id: {}}
		st.EvidenceMessage = fmt.Sprintf("No evidence times found for %s.", id)
		return st
	}

	clips, err := e.Snipper.Snip(ctx, id, uri, times)
	if err != nil {
		logx.Error().Err(err).Str("video_id", id).Msg("Evidence extraction failed")
		st.EvidenceClips = map[string][]string{id: {}}
		st.EvidenceMessage = fmt.Sprintf("Evidence extraction failed: %v", err)
		return st
	}

	st.EvidenceClips = map[string][]string{id: clips}
	if len(clips) > 0 {
		st.EvidenceMessage = fmt.Sprintf("Saved %d clip(s) to %s.", len(clips), e.Snipper.SnipDir)
	} else {
		st.EvidenceMessage = "No clips were produced. Check ffmpeg availability."
	}
	return st
}

// resolveVideo prefers an explicit id, then the first child-transcript
// entry holding evidence times, then the first target video.
func (e *Extractor) resolveVideo(st *model.RequestState, videoID string) string {
	if videoID != "" {
		return videoID
	}
	if st.ChildTranscript != nil {
		for _, v := range st.ChildTranscript.Videos {
			if len(v.EvidenceTimes) > 0 {
				return v.VideoID
			}
		}
	}
	if len(st.TargetVideos) > 0 {
		return st.TargetVideos[0]
	}
	return ""
}

// evidenceTimes prefers state-held child data and falls back to today's
// on-disk child transcripts, matched by child name.
func (e *Extractor) evidenceTimes(st *model.RequestState, videoID string) []string {
	if st.ChildTranscript != nil {
		if entry, ok := st.ChildTranscript.Entry(videoID); ok {
			return entry.EvidenceTimes
		}
	}

	name := st.ChildInfo
	if i := strings.IndexAny(name, ",;"); i >= 0 {
		name = name[:i]
	}
	doc, err := e.Children.LoadForDate(strings.TrimSpace(name), transcript.Today())
	if err != nil {
		logx.Warn().Err(err).Msg("Failed to load child transcripts for evidence")
		return nil
	}
	if doc == nil {
		return nil
	}
	if entry, ok := doc.Entry(videoID); ok {
		return entry.EvidenceTimes
	}
	return nil
}
