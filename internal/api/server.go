// Package api exposes the question-answering pipeline over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errx "github.com/daycare-qa/server/internal/core/error"
	"github.com/daycare-qa/server/internal/qa/evidence"
	"github.com/daycare-qa/server/internal/qa/graph"
	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

type Server struct {
	runner    *graph.Runner
	extractor *evidence.Extractor
	sessions  model.ConversationRepository
	engine    *gin.Engine
}

func NewServer(runner *graph.Runner, extractor *evidence.Extractor, sessions model.ConversationRepository) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		runner:    runner,
		extractor: extractor,
		sessions:  sessions,
		engine:    engine,
	}

	engine.GET("/health", s.health)
	engine.POST("/ask", s.ask)
	engine.POST("/followup", s.followup)
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	logx.Info().Str("addr", addr).Msg("HTTP API listening")
	return s.engine.Run(addr)
}

// Handler exposes the routed engine, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	// ChildInfo lets clients resume after a clarification round-trip.
	ChildInfo string `json:"child_info"`
}

type askResponse struct {
	RequestID           string            `json:"request_id"`
	FinalAnswer         string            `json:"final_answer"`
	WaitingForChildInfo bool              `json:"waiting_for_child_info"`
	ClarifyingQuestion  string            `json:"clarifying_question,omitempty"`
	TargetVideos        []string          `json:"target_videos"`
	PerVideoAnswers     map[string]string `json:"per_video_answers"`
	UsedTranscript      bool              `json:"used_transcript"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var history []model.ConversationMessage
	if req.SessionID != "" {
		h, err := s.sessions.History(c.Request.Context(), req.SessionID)
		if err != nil {
			c.JSON(errx.StatusOf(err), gin.H{"error": "failed to load session history"})
			return
		}
		history = h
	}

	st := model.NewRequestState(req.Question, history)
	st.ChildInfo = req.ChildInfo

	out, err := s.runner.Ask(c.Request.Context(), st)
	if err != nil {
		logx.Error().Err(err).Msg("ask failed")
		c.JSON(errx.StatusOf(err), gin.H{"error": "failed to process question"})
		return
	}

	resp := askResponse{
		RequestID:           out.RequestID,
		FinalAnswer:         out.FinalAnswer,
		WaitingForChildInfo: out.WaitingForChildInfo,
		TargetVideos:        out.TargetVideos,
		PerVideoAnswers:     out.PerVideoAnswers,
		UsedTranscript:      out.UsedTranscript,
	}
	if out.WaitingForChildInfo {
		resp.ClarifyingQuestion = out.UserQuestion
	} else if req.SessionID != "" {
		s.remember(c, req.SessionID, model.UserMessage(req.Question))
		s.remember(c, req.SessionID, model.AssistantMessage(out.FinalAnswer))
	}
	c.JSON(http.StatusOK, resp)
}

type followupRequest struct {
	Question    string                      `json:"question" binding:"required"`
	FinalAnswer string                      `json:"final_answer"`
	SessionID   string                      `json:"session_id"`
	History     []model.ConversationMessage `json:"history"`
	ChildInfo   string                      `json:"child_info"`
}

type followupResponse struct {
	FollowupResponse string              `json:"followup_response"`
	FollowupRoute    string              `json:"followup_route,omitempty"`
	FinalAnswer      string              `json:"final_answer,omitempty"`
	EvidenceClips    map[string][]string `json:"evidence_clips,omitempty"`
	EvidenceMessage  string              `json:"evidence_message,omitempty"`
}

func (s *Server) followup(c *gin.Context) {
	var req followupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history := req.History
	if req.SessionID != "" {
		h, err := s.sessions.History(c.Request.Context(), req.SessionID)
		if err != nil {
			c.JSON(errx.StatusOf(err), gin.H{"error": "failed to load session history"})
			return
		}
		history = h
	}
	history = append(history, model.UserMessage(req.Question))

	st := model.NewRequestState(req.Question, history)
	st.FinalAnswer = req.FinalAnswer
	st.ChildInfo = req.ChildInfo

	out, err := s.runner.Followup(c.Request.Context(), st)
	if err != nil {
		logx.Error().Err(err).Msg("followup failed")
		c.JSON(errx.StatusOf(err), gin.H{"error": "failed to process follow-up"})
		return
	}

	resp := followupResponse{
		FollowupResponse: out.FollowupResponse,
		FollowupRoute:    out.FollowupRoute,
	}
	answer := out.FollowupResponse
	switch {
	case out.FollowupRoute == model.RouteEvidence:
		out = s.extractor.Run(c.Request.Context(), out, "")
		resp.EvidenceClips = out.EvidenceClips
		resp.EvidenceMessage = out.EvidenceMessage
		answer = out.EvidenceMessage
	case out.FinalAnswer != "" && out.FinalAnswer != req.FinalAnswer:
		// The follow-up looped back through the pipeline.
		resp.FinalAnswer = out.FinalAnswer
		answer = out.FinalAnswer
	}

	if req.SessionID != "" {
		s.remember(c, req.SessionID, model.UserMessage(req.Question))
		s.remember(c, req.SessionID, model.AssistantMessage(answer))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "daycare-qa"})
}

func (s *Server) remember(c *gin.Context, sessionID string, msg model.ConversationMessage) {
	if err := s.sessions.Append(c.Request.Context(), sessionID, msg); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist session message")
	}
}
