// Package server exposes dispatch, quiz, analysis and notebook operations
// over HTTP for browser and editor front ends.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/dispatch"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/study"
)

// QuizGenerator builds a quiz from text.
type QuizGenerator interface {
	Generate(ctx context.Context, text, targetLanguage string) (quiz.Quiz, error)
}

// Deps are the components the API serves.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Quizzes    QuizGenerator
	Flow       *study.Flow
	Notebooks  *notebook.Store
	Handles    capability.Handles
	Logger     *zap.Logger

	// Registry backs /metrics. Nil creates a private one.
	Registry *prometheus.Registry

	RatePerSecond float64
	RateBurst     int
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	log    *zap.Logger
	engine *gin.Engine
}

// New builds the router. Call gin.SetMode before New to pick the mode.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.RatePerSecond <= 0 {
		deps.RatePerSecond = 5
	}
	if deps.RateBurst <= 0 {
		deps.RateBurst = 10
	}

	s := &Server{deps: deps, log: deps.Logger}
	metrics := newHTTPMetrics(deps.Registry)

	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), metrics.middleware())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api", rateLimiter(deps.RatePerSecond, deps.RateBurst))
	{
		api.POST("/selection", s.saveSelection)
		api.GET("/selection", s.getSelection)

		api.POST("/dispatch", s.dispatch)
		api.POST("/quiz", s.generateQuiz)
		api.POST("/quiz/grade", s.gradeQuiz)
		api.POST("/analysis", s.analyze)

		api.GET("/notebooks", s.listNotebooks)
		api.GET("/notebooks/:lang", s.listNotebook)
		api.POST("/notebooks/:lang/entries", s.saveEntry)
		api.DELETE("/notebooks/:lang/entries/:index", s.deleteEntry)

		api.GET("/skills", s.aggregateSkills)
		api.GET("/capabilities", s.capabilities)
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
