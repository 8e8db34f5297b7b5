package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// ComposerStage synthesizes one parent-facing paragraph from the per-source
// answers, hard-capped at the configured word limit. Empty synthesis falls
// back to concatenating usable per-video answers, and when none exist the
// fixed insufficient-evidence message is returned.
func ComposerStage(m llm.Model, cfg model.AnswerConfig) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		maxWords := cfg.MaxWords
		if maxWords <= 0 {
			maxWords = 140
		}

		lines := make([]string, 0, len(st.PerVideoAnswers))
		for _, key := range sortedKeys(st.PerVideoAnswers) {
			lines = append(lines, fmt.Sprintf("Video %s: %s", key, st.PerVideoAnswers[key]))
		}

		var answer string
		prompt, err := prompts.Composer(ctx, st.UserQuestion, strings.Join(lines, "\n"))
		if err == nil {
			out, cerr := m.CallText(ctx, prompt)
			if cerr != nil {
				logx.Warn().Err(cerr).Msg("Composer model call failed, using fallback")
			} else {
				answer = strings.TrimSpace(out)
			}
		}
		if answer == "" {
			answer = fallbackAnswer(st.PerVideoAnswers)
		}

		st.FinalAnswer = truncateWords(answer, maxWords)
		logx.Info().Str("request_id", st.RequestID).Bool("used_transcript", st.UsedTranscript).Msg("Composed final answer")
		return st, nil
	}
}

func fallbackAnswer(answers map[string]string) string {
	var parts []string
	for _, key := range sortedKeys(answers) {
		a := answers[key]
		if a != "" && a != NoEvidenceAnswer {
			parts = append(parts, fmt.Sprintf("From video %s: %s", key, a))
		}
	}
	if len(parts) == 0 {
		return InsufficientEvidenceAnswer
	}
	return strings.Join(parts, " ")
}

func NewComposerNode(m llm.Model, cfg model.AnswerConfig) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](ComposerStage(m, cfg)))
}

// NewComposerCondition continues to the follow-up advisor only for turns
// inside an ongoing conversation, and only once per graph run.
func NewComposerCondition() func(context.Context, *model.RequestState) (string, error) {
	return func(ctx context.Context, st *model.RequestState) (string, error) {
		if len(st.History) > 0 && st.FollowupResponse == "" {
			return NodeFollowupAdvisor, nil
		}
		return compose.END, nil
	}
}
