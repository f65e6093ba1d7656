package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/dispatch"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/study"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "created", Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Code: code, Message: message})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	var (
		unavailable *capability.UnavailableError
		unsupported *dispatch.UnsupportedActionError
		genErr      *quiz.GenerationError
		analysisErr *skills.AnalysisError
		capErr      *capability.Error
		oor         *notebook.IndexOutOfRangeError
	)
	switch {
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &genErr), errors.As(err, &analysisErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &capErr):
		return http.StatusBadGateway
	case errors.As(err, &oor):
		return http.StatusNotFound
	case errors.Is(err, notebook.ErrEmptyLanguage), errors.Is(err, study.ErrNothingToSave):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// failWith replies with the status for err. Internal errors are logged and
// their detail hidden.
func failWith(c *gin.Context, log *zap.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("internal server error", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, code, "internal server error")
		return
	}
	if code == http.StatusBadGateway || code == http.StatusServiceUnavailable {
		log.Warn("capability failure", zap.String("path", c.FullPath()), zap.Error(err))
	}
	fail(c, code, err.Error())
}
