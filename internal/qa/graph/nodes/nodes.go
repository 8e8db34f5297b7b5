// Package nodes contains the pipeline stages. Each stage is a pure state
// transformer with one category of side effect; external-call failures
// degrade into stage-local fallback values and never abort the graph.
package nodes

import (
	"context"
	"sort"
	"strings"

	"github.com/daycare-qa/server/internal/qa/model"
)

// Graph node names.
const (
	NodeChildIdentifier    = "child_identifier"
	NodeVideoPicker        = "video_picker"
	NodeQuestionRefiner    = "question_refiner"
	NodeTranscriptRouter   = "transcript_router"
	NodeTranscriptBuilder  = "transcript_builder"
	NodeTranscriptAnswerer = "transcript_answerer"
	NodeVideoAnalyzers     = "video_analyzers"
	NodeComposer           = "composer"
	NodeFollowupAdvisor    = "followup_advisor"
	NodeFollowupReentry    = "followup_reentry"
)

// Fixed user-facing fallback texts. Every stage failure funnels into one of
// these rather than surfacing an error to the parent.
const (
	NoEvidenceAnswer           = "Not enough evidence in this video."
	InsufficientEvidenceAnswer = "I couldn't find enough evidence in the available videos to answer your question."
	TranscriptDeferralAnswer   = "Thanks for the question! I can't answer that from today's notes yet, but I'll flag it for your child's teacher to follow up with you."
	AdvisorFallbackAnswer      = "I'm here to help! Please let me know if you have any other questions about your child's day."
)

// StageFunc is the uniform shape of every pipeline stage.
type StageFunc func(ctx context.Context, st *model.RequestState) (*model.RequestState, error)

// ===== JSON field accessors for loosely typed model output =====

func boolField(obj map[string]any, key string, fallback bool) bool {
	if v, ok := obj[key].(bool); ok {
		return v
	}
	return fallback
}

func floatField(obj map[string]any, key string, fallback float64) float64 {
	if v, ok := obj[key].(float64); ok {
		return v
	}
	return fallback
}

func stringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// firstSentence reduces a model reply to its first period-terminated clause.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "."); i >= 0 && i < len(s)-1 {
		return strings.TrimSpace(s[:i]) + "."
	}
	return s
}

// truncateWords hard-caps a text at max whitespace-separated words.
func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:max], " ") + "..."
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatHistory(history []model.ConversationMessage) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, msg.Role+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
