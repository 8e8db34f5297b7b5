package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// TranscriptBuilderStage ensures a day transcript exists for the target
// videos, cache-first: a pre-generated text transcript or today's JSON
// document is reused without any model calls. Otherwise one section per
// video is synthesized and persisted; per-video failures degrade to an
// empty placeholder section and never abort the batch.
func TranscriptBuilderStage(m llm.Model, days *transcript.DayStore, children *transcript.ChildStore, cat *catalog.Catalog, cfg model.AnswerConfig) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		if len(st.TargetVideos) == 0 {
			logx.Debug().Str("request_id", st.RequestID).Msg("No target videos, skipping transcript build")
			return st, nil
		}

		loadChildTranscript(st, children)

		date := transcript.Today()
		if latest, ok := days.Latest(); ok && strings.HasSuffix(latest, ".txt") {
			st.TranscriptPath = latest
			logx.Info().Str("transcript_path", latest).Msg("Using existing text transcript")
			return st, nil
		}
		if days.Exists(date) {
			st.TranscriptPath = days.PathFor(date)
			logx.Info().Str("transcript_path", st.TranscriptPath).Msg("Reusing cached day transcript")
			return st, nil
		}

		version := st.TranscriptPromptVersion
		if version == "" {
			version = cfg.PromptVersion
		}
		doc := &transcript.DayDocument{
			Date:   date,
			Videos: make(map[string]transcript.DaySection, len(st.TargetVideos)),
			Meta:   transcript.DayMeta{PromptVersion: version},
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range st.TargetVideos {
			id := id
			g.Go(func() error {
				sec := buildSection(gctx, m, cat, id)
				mu.Lock()
				doc.Videos[id] = sec
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		path, err := days.Save(doc)
		if err != nil {
			logx.Error().Err(err).Msg("Failed to persist day transcript")
			return st, nil
		}
		st.TranscriptPath = path
		st.TranscriptPromptVersion = version
		logx.Info().Str("transcript_path", path).Int("videos", len(doc.Videos)).Msg("Built day transcript")
		return st, nil
	}
}

// loadChildTranscript attaches today's per-child observations when the child
// is known, which flips the preference to the cheap path.
func loadChildTranscript(st *model.RequestState, children *transcript.ChildStore) {
	if st.ChildInfo == "" || st.ChildTranscript != nil {
		return
	}
	doc, err := children.LoadForDate(childName(st.ChildInfo), transcript.Today())
	if err != nil {
		logx.Warn().Err(err).Msg("Failed to load child transcripts")
		return
	}
	if doc != nil {
		st.ChildTranscript = doc
		st.TranscriptPrefer = true
		logx.Info().Str("child", doc.Child).Int("videos", len(doc.Videos)).Msg("Loaded child transcript data")
	}
}

// childName extracts the name portion of "Name, wearing ..." child info.
func childName(info string) string {
	if i := strings.IndexAny(info, ",;"); i >= 0 {
		info = info[:i]
	}
	return strings.TrimSpace(info)
}

func buildSection(ctx context.Context, m llm.Model, cat *catalog.Catalog, videoID string) transcript.DaySection {
	meta, err := cat.Metadata(videoID)
	if err != nil {
		logx.Error().Err(err).Str("video_id", videoID).Msg("Transcript section failed")
		return transcript.EmptySection()
	}

	videoCtx := fmt.Sprintf("Video ID: %s, Session: %s, Start: %s, End: %s, Description: %s",
		videoID, meta.SessionType, meta.StartTime, meta.EndTime, meta.Description)
	prompt, err := prompts.DaySection(ctx, videoCtx)
	if err != nil {
		logx.Error().Err(err).Str("video_id", videoID).Msg("Transcript section prompt render failed")
		return transcript.EmptySection()
	}

	text, err := m.CallVideo(ctx, prompt, meta.URI)
	if err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Transcript section model call failed, storing placeholder")
		return transcript.EmptySection()
	}

	sec, err := decodeSection(text)
	if err != nil {
		// Keep the raw narrative as the activity rather than dropping it.
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Transcript section not JSON, storing fallback text")
		sec = transcript.EmptySection()
		sec.Activity = truncateRunes(text, 200)
	}
	return sec
}

func decodeSection(text string) (transcript.DaySection, error) {
	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		return transcript.DaySection{}, err
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return transcript.DaySection{}, err
	}
	var sec transcript.DaySection
	if err := json.Unmarshal(raw, &sec); err != nil {
		return transcript.DaySection{}, err
	}
	return sec, nil
}

func NewTranscriptBuilderNode(m llm.Model, days *transcript.DayStore, children *transcript.ChildStore, cat *catalog.Catalog, cfg model.AnswerConfig) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](TranscriptBuilderStage(m, days, children, cat, cfg)))
}
