package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// ChildIdentifierStage gates the pipeline on knowing which child the parent
// is asking about. When identity is required but missing it substitutes a
// clarifying question and sets the wait flag; the graph halts at the next
// branch and the caller collects the parent's reply.
func ChildIdentifierStage(m llm.Model) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		if st.ChildInfo != "" {
			st.WaitingForChildInfo = false
			if st.OriginalQuestion != "" {
				st.UserQuestion = st.OriginalQuestion
			}
			logx.Debug().Str("request_id", st.RequestID).Msg("Child info available, proceeding with original question")
			return st, nil
		}

		// Classification failure defaults to requiring identity.
		requires := true
		prompt, err := prompts.ChildIdentifierClassify(ctx, st.UserQuestion)
		if err == nil {
			obj, cerr := m.CallJSON(ctx, prompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Child identity classification failed, defaulting to requiring child info")
			} else {
				requires = boolField(obj, "requires_child", true)
			}
		}

		if !requires {
			st.WaitingForChildInfo = false
			logx.Debug().Str("request_id", st.RequestID).Msg("Child identification not required")
			return st, nil
		}

		clarify := prompts.ChildIdentifierQuestion()
		st.OriginalQuestion = st.UserQuestion
		st.UserQuestion = clarify
		st.History = append(st.History, model.AssistantMessage(clarify))
		st.WaitingForChildInfo = true
		logx.Info().Str("request_id", st.RequestID).Msg("Requesting child identification")
		return st, nil
	}
}

func NewChildIdentifierNode(m llm.Model) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](ChildIdentifierStage(m)))
}

// NewChildIdentifierCondition halts the graph while a clarification reply is
// outstanding and proceeds to video selection otherwise.
func NewChildIdentifierCondition() func(context.Context, *model.RequestState) (string, error) {
	return func(ctx context.Context, st *model.RequestState) (string, error) {
		if st.WaitingForChildInfo {
			return compose.END, nil
		}
		return NodeVideoPicker, nil
	}
}
