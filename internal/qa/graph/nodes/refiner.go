package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// QuestionRefinerStage reduces the parent's question to one precise sentence
// for per-video analysis. Failures fall back to the unrefined question.
func QuestionRefinerStage(m llm.Model) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		question := st.Question()

		var refined string
		prompt, err := prompts.QuestionRefiner(ctx, question, st.ChildInfo)
		if err == nil {
			out, cerr := m.CallText(ctx, prompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Question refiner model call failed, using original question")
			} else {
				refined = firstSentence(out)
			}
		}
		if refined == "" {
			refined = question
		}

		st.TargetQuestion = refined
		logx.Debug().Str("request_id", st.RequestID).Str("target_question", refined).Msg("Refined question")
		return st, nil
	}
}

func NewQuestionRefinerNode(m llm.Model) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](QuestionRefinerStage(m)))
}
