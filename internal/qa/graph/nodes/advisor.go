package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// FollowupAdvisorStage produces a supportive response to the latest
// follow-up, then separately classifies it into a route. Route
// classification failure clears the route, which downstream treats the same
// as plain parenting help.
func FollowupAdvisorStage(m llm.Model) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		var response string
		prompt, err := prompts.FollowupAdvisor(ctx, st.UserQuestion, st.FinalAnswer, formatHistory(st.History))
		if err == nil {
			out, cerr := m.CallText(ctx, prompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Follow-up advisor model call failed, using fallback")
			} else {
				response = strings.TrimSpace(out)
			}
		}
		if response == "" {
			response = AdvisorFallbackAnswer
		}
		st.FollowupResponse = response

		latest, ok := st.LatestUserMessage()
		if !ok {
			return st, nil
		}

		st.FollowupRoute = ""
		routerPrompt, err := prompts.FollowupRouter(ctx, latest)
		if err == nil {
			obj, cerr := m.CallJSON(ctx, routerPrompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Follow-up routing failed")
			} else {
				switch route := stringField(obj, "route", model.RouteParentingHelp); route {
				case model.RouteParentingHelp, model.RouteTranscriptChild, model.RouteTranscriptDay, model.RouteEvidence:
					st.FollowupRoute = route
				}
			}
		}
		if st.FollowupRoute == model.RouteTranscriptChild || st.FollowupRoute == model.RouteTranscriptDay {
			st.FollowupNextQuestion = latest
		}

		logx.Info().Str("request_id", st.RequestID).Str("followup_route", st.FollowupRoute).Msg("Advised on follow-up")
		return st, nil
	}
}

func NewFollowupAdvisorNode(m llm.Model) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](FollowupAdvisorStage(m)))
}

// NewFollowupAdvisorCondition loops the graph back to the pipeline for
// follow-ups that need fresh answering; everything else ends the run.
func NewFollowupAdvisorCondition() func(context.Context, *model.RequestState) (string, error) {
	return func(ctx context.Context, st *model.RequestState) (string, error) {
		switch st.FollowupRoute {
		case model.RouteTranscriptChild, model.RouteTranscriptDay:
			return NodeFollowupReentry, nil
		}
		return compose.END, nil
	}
}
