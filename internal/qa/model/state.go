package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/daycare-qa/server/internal/qa/transcript"
)

// Follow-up routes produced by the follow-up router.
const (
	RouteParentingHelp   = "parenting_help"
	RouteTranscriptChild = "transcript_child"
	RouteTranscriptDay   = "transcript_day"
	RouteEvidence        = "evidence"
)

// Sentinel keys used in PerVideoAnswers for transcript-backed evidence.
// Keys never mix across tiers within one request: a map holds either
// video ids, transcript sentinels, or the fallback sentinel.
const (
	SourceDayTranscript   = "day_transcript"
	SourceChildTranscript = "child_transcript"
	SourceFallback        = "fallback"
)

// ConversationMessage is one turn of the parent-facing conversation.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func UserMessage(content string) ConversationMessage {
	return ConversationMessage{Role: "user", Content: content, Timestamp: time.Now()}
}

func AssistantMessage(content string) ConversationMessage {
	return ConversationMessage{Role: "assistant", Content: content, Timestamp: time.Now()}
}

// RequestState is the single mutable record threaded through every stage of
// the graph. Exactly one stage writes it at a time; stages treat zero-value
// optional fields as "not yet known". On a follow-up re-entry the state is
// reattached (history and final answer carried forward), never recreated.
type RequestState struct {
	RequestID string
	CreatedAt time.Time

	// Current question; temporarily substituted by a clarifying question
	// while waiting for child identification.
	UserQuestion     string
	OriginalQuestion string

	ChildInfo           string
	WaitingForChildInfo bool

	// Selection order is preference order; ids are unique.
	TargetVideos   []string
	TargetQuestion string

	TranscriptPath          string
	TranscriptPromptVersion string
	TranscriptPrefer        bool
	TranscriptCanAnswer     bool
	// UsedTranscript implies TranscriptCanAnswer.
	UsedTranscript  bool
	TranscriptsOnly bool
	ChildTranscript *transcript.ChildDocument

	PerVideoAnswers map[string]string
	FinalAnswer     string

	History []ConversationMessage

	FollowupResponse     string
	FollowupRoute        string
	FollowupNextQuestion string

	EvidenceClips   map[string][]string
	EvidenceMessage string

	DemoMode bool
}

// NewRequestState creates the state for one top-level question. Prior
// conversation history, if any, is attached so the composer branch can
// decide whether follow-up advice applies.
func NewRequestState(question string, history []ConversationMessage) *RequestState {
	return &RequestState{
		RequestID:    uuid.NewString(),
		CreatedAt:    time.Now(),
		UserQuestion: question,
		History:      history,
	}
}

// Question returns the question the downstream stages should reason about:
// the original one when a clarification sub-dialog replaced UserQuestion.
func (s *RequestState) Question() string {
	if s.OriginalQuestion != "" {
		return s.OriginalQuestion
	}
	return s.UserQuestion
}

// LatestUserMessage returns the most recent user turn in the history.
func (s *RequestState) LatestUserMessage() (string, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == "user" && s.History[i].Content != "" {
			return s.History[i].Content, true
		}
	}
	return "", false
}
