package nodes

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// VideoAnalyzersStage runs the expensive multimodal call once per target
// video. Videos are independent and fanned out concurrently; a per-video
// failure yields the fixed no-evidence placeholder for that video only.
func VideoAnalyzersStage(m llm.Model, cat *catalog.Catalog) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		if len(st.TargetVideos) == 0 {
			logx.Warn().Str("request_id", st.RequestID).Msg("No target videos to analyze")
			st.PerVideoAnswers = map[string]string{}
			return st, nil
		}

		question := st.TargetQuestion
		if question == "" {
			question = st.Question()
		}

		answers := make(map[string]string, len(st.TargetVideos))
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range st.TargetVideos {
			id := id
			g.Go(func() error {
				answer := analyzeOne(gctx, m, cat, id, question, st.ChildInfo)
				mu.Lock()
				answers[id] = answer
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		st.PerVideoAnswers = answers
		logx.Info().Str("request_id", st.RequestID).Int("videos", len(answers)).Msg("Completed per-video analysis")
		return st, nil
	}
}

func analyzeOne(ctx context.Context, m llm.Model, cat *catalog.Catalog, videoID, question, childInfo string) string {
	uri, err := cat.URI(videoID)
	if err != nil {
		logx.Error().Err(err).Str("video_id", videoID).Msg("Video analysis failed")
		return NoEvidenceAnswer
	}
	prompt, err := prompts.VideoAnalyzer(ctx, question, childInfo)
	if err != nil {
		logx.Error().Err(err).Str("video_id", videoID).Msg("Video analyzer prompt render failed")
		return NoEvidenceAnswer
	}
	answer, err := m.CallVideo(ctx, prompt, uri)
	if err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Video analysis model call failed")
		return NoEvidenceAnswer
	}
	return answer
}

func NewVideoAnalyzersNode(m llm.Model, cat *catalog.Catalog) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](VideoAnalyzersStage(m, cat)))
}
