package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// TranscriptRouterStage decides whether the transcript path should be
// preferred for this question. Classification failure defaults to false:
// the expensive path stays the default unless explicitly signaled.
func TranscriptRouterStage(m llm.Model) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		question := st.TargetQuestion
		if question == "" {
			question = st.Question()
		}

		prefer := false
		prompt, err := prompts.TranscriptRouter(ctx, question)
		if err == nil {
			obj, cerr := m.CallJSON(ctx, prompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Transcript router model call failed, not preferring transcript")
			} else {
				prefer = boolField(obj, "prefer_transcript", false)
			}
		}

		st.TranscriptPrefer = st.TranscriptPrefer || prefer
		logx.Debug().Str("request_id", st.RequestID).Bool("transcript_prefer", st.TranscriptPrefer).Msg("Routed transcript preference")
		return st, nil
	}
}

func NewTranscriptRouterNode(m llm.Model) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](TranscriptRouterStage(m)))
}
