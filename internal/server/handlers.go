package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lingopad/internal/dispatch"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/study"
)

// selectionMessage is the "text selected" notification from a page.
type selectionMessage struct {
	Action string `json:"action" binding:"required"`
	Text   string `json:"text"`
}

func (s *Server) health(c *gin.Context) {
	success(c, gin.H{"status": "ok"})
}

func (s *Server) saveSelection(c *gin.Context) {
	var msg selectionMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		badRequest(c, err.Error())
		return
	}
	if msg.Action != "textSelected" {
		failWith(c, s.log, &dispatch.UnsupportedActionError{Action: msg.Action})
		return
	}
	if err := s.deps.Notebooks.SaveSelection(c.Request.Context(), msg.Text); err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, gin.H{"status": "saved"})
}

func (s *Server) getSelection(c *gin.Context) {
	text, err := s.deps.Notebooks.Selection(c.Request.Context())
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, gin.H{"text": text})
}

type dispatchRequest struct {
	Action         string `json:"action" binding:"required"`
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	Mode           string `json:"mode"`
	SourceLanguage string `json:"sourceLanguage"`
	Format         string `json:"format"`
}

func (s *Server) dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, "text is required")
		return
	}

	res, err := s.deps.Dispatcher.Dispatch(c.Request.Context(), req.Action, req.Text, dispatch.Options{
		TargetLanguage: req.TargetLanguage,
		Mode:           req.Mode,
		SourceLanguage: req.SourceLanguage,
		Format:         req.Format,
	})
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, res)
}

type quizRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"targetLanguage"`
}

func (s *Server) generateQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	q, err := s.deps.Quizzes.Generate(c.Request.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, q)
}

type gradeRequest struct {
	Quiz    quiz.Quiz `json:"quiz" binding:"required"`
	Answers []string  `json:"answers"`
}

type gradeResponse struct {
	Responses []quiz.Response `json:"responses"`
	Correct   int             `json:"correct"`
	Total     int             `json:"total"`
}

func (s *Server) gradeQuiz(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(req.Answers) != len(req.Quiz) {
		badRequest(c, "answers must have one entry per quiz item")
		return
	}

	out := gradeResponse{Responses: make([]quiz.Response, len(req.Quiz))}
	for i, it := range req.Quiz {
		out.Responses[i] = quiz.Grade(it, req.Answers[i])
	}
	out.Correct, out.Total = quiz.Score(out.Responses)
	success(c, out)
}

type analysisRequest struct {
	Responses []quiz.Response `json:"responses" binding:"required"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	report, err := s.deps.Flow.Analyze(c.Request.Context(), req.Responses)
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, report)
}

func (s *Server) listNotebooks(c *gin.Context) {
	nb, err := s.deps.Notebooks.ListAll(c.Request.Context())
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, nb)
}

func (s *Server) listNotebook(c *gin.Context) {
	entries, err := s.deps.Notebooks.ListFor(c.Request.Context(), c.Param("lang"))
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	if entries == nil {
		entries = []notebook.Entry{}
	}
	success(c, entries)
}

type saveResponse struct {
	Entry         notebook.Entry `json:"entry"`
	AnalysisError string         `json:"analysisError,omitempty"`
}

func (s *Server) saveEntry(c *gin.Context) {
	var req study.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Language = c.Param("lang")

	res, err := s.deps.Flow.Save(c.Request.Context(), req)
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	out := saveResponse{Entry: res.Entry}
	if res.AnalysisErr != nil {
		out.AnalysisError = res.AnalysisErr.Error()
	}
	created(c, out)
}

func (s *Server) deleteEntry(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return
	}
	if err := s.deps.Notebooks.Delete(c.Request.Context(), c.Param("lang"), index); err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, gin.H{"status": "deleted"})
}

func (s *Server) aggregateSkills(c *gin.Context) {
	agg, err := s.deps.Notebooks.AggregateSkills(c.Request.Context(), c.Query("lang"))
	if err != nil {
		failWith(c, s.log, err)
		return
	}
	success(c, agg)
}

func (s *Server) capabilities(c *gin.Context) {
	success(c, s.deps.Handles.Report(c.Request.Context()))
}
