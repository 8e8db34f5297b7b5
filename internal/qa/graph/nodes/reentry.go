package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// FollowupReentryStage rewrites the state so the graph loops back to the
// child identifier with the follow-up as the new top-level question.
// History, final answer, child identity, and loaded child data carry
// forward; per-pass selection and transcript verdict fields reset.
func FollowupReentryStage() StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		if q := strings.TrimSpace(st.FollowupNextQuestion); q != "" {
			st.UserQuestion = q
		}
		st.OriginalQuestion = ""
		st.WaitingForChildInfo = false
		st.FollowupRoute = ""
		st.FollowupNextQuestion = ""

		st.TargetVideos = nil
		st.TargetQuestion = ""
		st.TranscriptPath = ""
		st.TranscriptPrefer = false
		st.TranscriptCanAnswer = false
		st.UsedTranscript = false
		st.PerVideoAnswers = nil

		logx.Info().Str("request_id", st.RequestID).Str("user_question", st.UserQuestion).Msg("Re-entering pipeline for follow-up")
		return st, nil
	}
}

func NewFollowupReentryNode() *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](FollowupReentryStage()))
}
