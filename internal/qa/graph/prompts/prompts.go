package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/child_identifier_classify.txt
var childIdentifierClassifyPrompt string

//go:embed template/child_identifier.txt
var childIdentifierQuestion string

//go:embed template/video_picker.txt
var videoPickerPrompt string

//go:embed template/question_refiner.txt
var questionRefinerPrompt string

//go:embed template/transcript_router.txt
var transcriptRouterPrompt string

//go:embed template/transcript_day_section.txt
var daySectionPrompt string

//go:embed template/transcript_answerer.txt
var transcriptAnswererPrompt string

//go:embed template/child_transcript_answerer.txt
var childTranscriptAnswererPrompt string

//go:embed template/video_analyzer.txt
var videoAnalyzerPrompt string

//go:embed template/composer.txt
var composerPrompt string

//go:embed template/followup_advisor.txt
var followupAdvisorPrompt string

//go:embed template/followup_router.txt
var followupRouterPrompt string

//go:embed template/transcript_one_time.txt
var oneTimeTranscriptPrompt string

//go:embed template/child_simple_analyzer.txt
var childSimpleAnalyzerPrompt string

//go:embed template/child_mood_analyzer.txt
var childMoodAnalyzerPrompt string

// render formats a template via the Eino prompt component so prompt
// callbacks fire the same way they do for chat-model nodes.
func render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// childContextLine formats optional child info as a trailing line so
// templates read naturally whether or not the child is known.
func childContextLine(childInfo string) string {
	childInfo = strings.TrimSpace(childInfo)
	if childInfo == "" {
		return ""
	}
	return "\nChild: " + childInfo
}

// ChildIdentifierClassify asks whether the question needs child identity.
func ChildIdentifierClassify(ctx context.Context, question string) (string, error) {
	return render(ctx, childIdentifierClassifyPrompt, map[string]any{
		"question": question,
	})
}

// ChildIdentifierQuestion is the clarifying question sent back to the
// parent when child identity is required but missing.
func ChildIdentifierQuestion() string {
	return strings.TrimSpace(childIdentifierQuestion)
}

// VideoPicker selects relevant catalog videos for the question.
func VideoPicker(ctx context.Context, question, childInfo, catalogInfo string) (string, error) {
	return render(ctx, videoPickerPrompt, map[string]any{
		"question":      question,
		"child_context": childContextLine(childInfo),
		"catalog":       catalogInfo,
	})
}

// QuestionRefiner rewrites the question into one precise video query.
func QuestionRefiner(ctx context.Context, question, childInfo string) (string, error) {
	return render(ctx, questionRefinerPrompt, map[string]any{
		"question":      question,
		"child_context": childContextLine(childInfo),
	})
}

// TranscriptRouter decides whether the transcript path should be preferred.
func TranscriptRouter(ctx context.Context, question string) (string, error) {
	return render(ctx, transcriptRouterPrompt, map[string]any{
		"question": question,
	})
}

// DaySection asks the model to synthesize one transcript section per video.
func DaySection(ctx context.Context, videoContext string) (string, error) {
	vc := strings.TrimSpace(videoContext)
	if vc != "" {
		vc = "\nVideo context: " + vc
	}
	return render(ctx, daySectionPrompt, map[string]any{
		"video_context": vc,
	})
}

// TranscriptAnswerer judges whether the day transcript answers the question.
func TranscriptAnswerer(ctx context.Context, question, childInfo, transcript string, isJSON bool) (string, error) {
	label := "Transcript"
	if isJSON {
		label = "Transcript JSON"
	}
	return render(ctx, transcriptAnswererPrompt, map[string]any{
		"question":         question,
		"child_context":    childContextLine(childInfo),
		"transcript_label": label,
		"transcript":       transcript,
	})
}

// ChildTranscriptAnswerer judges per-child observations against the question.
func ChildTranscriptAnswerer(ctx context.Context, question, childInfo, childTranscript, daySection string) (string, error) {
	ds := strings.TrimSpace(daySection)
	if ds != "" {
		ds = "\nDay Transcript:\n" + ds
	}
	return render(ctx, childTranscriptAnswererPrompt, map[string]any{
		"question":         question,
		"child_context":    childContextLine(childInfo),
		"child_transcript": childTranscript,
		"day_section":      ds,
	})
}

// VideoAnalyzer answers the refined question against one video's footage.
func VideoAnalyzer(ctx context.Context, question, childInfo string) (string, error) {
	return render(ctx, videoAnalyzerPrompt, map[string]any{
		"question":      question,
		"child_context": childContextLine(childInfo),
	})
}

// Composer synthesizes one parent-facing paragraph from per-video answers.
func Composer(ctx context.Context, question, answers string) (string, error) {
	return render(ctx, composerPrompt, map[string]any{
		"question": question,
		"answers":  answers,
	})
}

// FollowupAdvisor produces a supportive answer to the latest follow-up.
func FollowupAdvisor(ctx context.Context, question, finalAnswer, history string) (string, error) {
	return render(ctx, followupAdvisorPrompt, map[string]any{
		"question":     question,
		"final_answer": finalAnswer,
		"history":      history,
	})
}

// FollowupRouter classifies the latest follow-up into a route.
func FollowupRouter(ctx context.Context, question string) (string, error) {
	return render(ctx, followupRouterPrompt, map[string]any{
		"question": question,
	})
}

// OneTimeTranscript is the narrative transcript prompt used by the
// offline transcript generator. It takes no variables.
func OneTimeTranscript() string {
	return strings.TrimSpace(oneTimeTranscriptPrompt)
}

// ChildSimpleAnalyzer is the outfit-based per-child analysis prompt used
// by the offline child-transcript generator.
func ChildSimpleAnalyzer(videoID, outfit string) string {
	base := strings.TrimSpace(childSimpleAnalyzerPrompt)
	return base + "\n\nVideo id: " + videoID + "\nOutfit: " + outfit
}

// ChildMoodAnalyzer is the photo-guided per-child analysis prompt used by
// the image-based child-transcript generator.
func ChildMoodAnalyzer(videoID string) string {
	base := strings.TrimSpace(childMoodAnalyzerPrompt)
	return base + "\n\nVideo id: " + videoID
}
