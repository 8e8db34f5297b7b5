package nodes

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Keyword classes mapped to the child-transcript fields they request.
// Matching is substring-based against the lowercased question.
var childFieldKeywords = map[string][]string{
	"mood":             {"mood", "feeling", "affect", "emotional", "emotion", "demeanor"},
	"engagement_level": {"engage", "engagement", "attention", "focused", "focus"},
	"behaviors":        {"behav", "action", "participat", "join", "do", "did"},
	"distress_events":  {"distress", "cry", "upset", "frustrat", "meltdown", "tear", "sad", "anxious"},
}

type verdict struct {
	CanAnswer  bool
	Confidence float64
}

// TranscriptAnswererStage decides whether the cheap path suffices. Child
// data is consulted first under a strict-field policy: only the fields the
// question asks for are surfaced as evidence, with no model gate. Without
// matching fields it falls back to model confidence gates, and a
// transcript-only caller whose gates all fail receives a fixed deferral
// message as a degraded terminal answer.
func TranscriptAnswererStage(m llm.Model, days *transcript.DayStore, cfg model.AnswerConfig) StageFunc {
	return func(ctx context.Context, st *model.RequestState) (*model.RequestState, error) {
		question := st.TargetQuestion
		if question == "" {
			question = st.Question()
		}

		var dayContent string
		var dayIsJSON bool
		if st.TranscriptPath != "" {
			content, isJSON, err := days.LoadRaw(st.TranscriptPath)
			if err != nil {
				logx.Warn().Err(err).Str("transcript_path", st.TranscriptPath).Msg("Failed to read day transcript")
			} else {
				dayContent, dayIsJSON = content, isJSON
			}
		}

		if st.ChildTranscript != nil && answerFromChildData(ctx, m, st, question, dayContent, cfg) {
			return st, nil
		}

		if dayContent != "" {
			v, ok := transcriptVerdict(ctx, m, func() (string, error) {
				return prompts.TranscriptAnswerer(ctx, question, st.ChildInfo, dayContent, dayIsJSON)
			})
			if ok && ((v.CanAnswer && v.Confidence >= cfg.DayThreshold) || st.TranscriptPrefer) {
				st.PerVideoAnswers = map[string]string{model.SourceDayTranscript: dayContent}
				st.TranscriptCanAnswer = true
				st.UsedTranscript = true
				logx.Info().Str("request_id", st.RequestID).Float64("confidence", v.Confidence).Msg("Answering from day transcript")
				return st, nil
			}
		}

		if st.TranscriptsOnly {
			st.PerVideoAnswers = map[string]string{model.SourceFallback: TranscriptDeferralAnswer}
			st.TranscriptCanAnswer = true
			logx.Info().Str("request_id", st.RequestID).Msg("Transcript-only request could not be answered, deferring")
		}
		return st, nil
	}
}

// answerFromChildData reports whether the child transcript settled the
// question and updates the state when it did.
func answerFromChildData(ctx context.Context, m llm.Model, st *model.RequestState, question, dayContent string, cfg model.AnswerConfig) bool {
	requested := requestedChildFields(question)
	if len(requested) > 0 {
		if filtered, ok := filterChildEvidence(st.ChildTranscript, requested); ok {
			answers := map[string]string{model.SourceChildTranscript: filtered}
			if dayContent != "" {
				answers[model.SourceDayTranscript] = dayContent
			}
			st.PerVideoAnswers = answers
			st.TranscriptCanAnswer = true
			st.UsedTranscript = true
			logx.Info().Str("request_id", st.RequestID).Msg("Answering from strict child evidence fields")
			return true
		}
	}

	raw, err := json.Marshal(st.ChildTranscript)
	if err != nil {
		return false
	}
	v, ok := transcriptVerdict(ctx, m, func() (string, error) {
		return prompts.ChildTranscriptAnswerer(ctx, question, st.ChildInfo, string(raw), dayContent)
	})
	if !ok || !v.CanAnswer || v.Confidence < cfg.ChildThreshold {
		return false
	}

	answers := map[string]string{model.SourceChildTranscript: string(raw)}
	if dayContent != "" {
		answers[model.SourceDayTranscript] = dayContent
	}
	st.PerVideoAnswers = answers
	st.TranscriptCanAnswer = true
	st.UsedTranscript = true
	logx.Info().Str("request_id", st.RequestID).Float64("confidence", v.Confidence).Msg("Answering from child transcript")
	return true
}

func requestedChildFields(question string) map[string]bool {
	ql := strings.ToLower(question)
	fields := make(map[string]bool)
	for field, keys := range childFieldKeywords {
		for _, k := range keys {
			if strings.Contains(ql, k) {
				fields[field] = true
				break
			}
		}
	}
	// Behavior questions implicitly ask about participation.
	if fields["behaviors"] {
		fields["participated"] = true
	}
	return fields
}

// filterChildEvidence projects per-video entries onto the requested fields,
// keeping summary and evidence times for grounding. Entries with nothing
// beyond the video id are dropped; ok is false when no entry survives.
func filterChildEvidence(doc *transcript.ChildDocument, requested map[string]bool) (string, bool) {
	type filteredDoc struct {
		Videos []map[string]any `json:"videos"`
	}
	var out filteredDoc
	for _, v := range doc.Videos {
		entry := map[string]any{"video_id": v.VideoID}
		if requested["mood"] && len(v.Mood) > 0 {
			entry["mood"] = v.Mood
		}
		if requested["engagement_level"] && v.EngagementLevel != "" {
			entry["engagement_level"] = v.EngagementLevel
		}
		if requested["participated"] && v.Participated != nil {
			entry["participated"] = *v.Participated
		}
		if requested["behaviors"] && len(v.Behaviors) > 0 {
			entry["behaviors"] = v.Behaviors
		}
		if requested["distress_events"] && v.DistressEvents != nil {
			entry["distress_events"] = v.DistressEvents
		}
		if v.Summary != "" {
			entry["summary"] = v.Summary
		}
		if len(v.EvidenceTimes) > 0 {
			entry["evidence_times"] = v.EvidenceTimes
		}
		if len(entry) > 1 {
			out.Videos = append(out.Videos, entry)
		}
	}
	if len(out.Videos) == 0 {
		return "", false
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func transcriptVerdict(ctx context.Context, m llm.Model, render func() (string, error)) (verdict, bool) {
	prompt, err := render()
	if err != nil {
		logx.Warn().Err(err).Msg("Transcript answerer prompt render failed")
		return verdict{}, false
	}
	obj, err := m.CallJSON(ctx, prompt)
	if err != nil {
		logx.Warn().Err(err).Msg("Transcript answerer model call failed")
		return verdict{}, false
	}
	return verdict{
		CanAnswer:  boolField(obj, "can_answer", false),
		Confidence: floatField(obj, "confidence", 0),
	}, true
}

// NewTranscriptAnswererNode wraps the stage for the graph.
func NewTranscriptAnswererNode(m llm.Model, days *transcript.DayStore, cfg model.AnswerConfig) *compose.Lambda {
	return compose.InvokableLambda(compose.InvokeWOOpt[*model.RequestState, *model.RequestState](TranscriptAnswererStage(m, days, cfg)))
}

// NewTranscriptAnswerCondition routes to the composer when the cheap path
// settled the question and to the expensive per-video path otherwise.
func NewTranscriptAnswerCondition() func(context.Context, *model.RequestState) (string, error) {
	return func(ctx context.Context, st *model.RequestState) (string, error) {
		if st.TranscriptCanAnswer {
			return NodeComposer, nil
		}
		return NodeVideoAnalyzers, nil
	}
}
