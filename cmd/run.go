package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/config"
	"github.com/abhisek/lingopad/internal/dispatch"
	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/logger"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/store"
	"github.com/abhisek/lingopad/internal/study"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger

	// sqlite is set for the sqlite backend and also backs the event log.
	sqlite *store.Store
	kv     store.KV

	registry   *prometheus.Registry
	handles    capability.Handles
	adapter    *capability.Adapter
	quizzes    *quiz.Synthesizer
	analyzer   *skills.Analyzer
	dispatcher *dispatch.Dispatcher
	notebooks  *notebook.Store
	flow       *study.Flow

	closers []func() error
}

// loadApp resolves configuration, opens storage and builds the component
// graph. A provider that cannot be built leaves every capability
// unavailable instead of failing the command.
func loadApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var events store.EventRepo
	if a.sqlite != nil {
		events = a.sqlite.Events()
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, log)
	if err != nil {
		log.Warn("LLM provider not configured; capabilities will be unavailable", zap.Error(err))
		a.handles = unavailableHandles()
		provider = llm.NewMockProvider()
	} else {
		a.handles = capability.Resolve(provider, cfg.Capabilities.Disabled)
	}

	a.adapter, err = capability.NewAdapter(capability.NewLLMService(provider), a.handles, capability.Config{
		WaitForProvisioning: cfg.Capabilities.WaitForProvisioning,
		Logger:              log,
		Registerer:          a.registry,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.quizzes = quiz.NewSynthesizer(a.adapter, log)
	a.analyzer = skills.NewAnalyzer(a.adapter, log)
	a.dispatcher = dispatch.New(a.adapter, a.quizzes, log)
	a.notebooks = notebook.New(a.kv)
	a.flow = study.NewFlow(a.analyzer, a.notebooks, log)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case "sqlite":
		path := a.cfg.Store.Path
		var err error
		if path == "" {
			path, err = store.DefaultDBPath()
		} else {
			err = store.EnsureDir(path)
		}
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.sqlite, a.kv = st, st.KV()
		a.closers = append(a.closers, st.Close)
	case "redis":
		kv, closeFn, err := store.OpenRedis(ctx, a.cfg.Store.Redis)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		a.kv = kv
		a.closers = append(a.closers, closeFn)
	case "memory":
		a.kv = store.NewMemoryKV()
	default:
		return fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
	a.log.Debug("store opened", zap.String("backend", a.cfg.Store.Backend))
	return nil
}

// Close releases storage in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
}

// eventLog returns the SQLite event log, which only the sqlite backend has.
func (a *app) eventLog() (*store.EventLog, error) {
	if a.sqlite == nil {
		return nil, fmt.Errorf("LLM event log requires the sqlite backend (current: %s)", a.cfg.Store.Backend)
	}
	return a.sqlite.Events(), nil
}

func unavailableHandles() capability.Handles {
	hs := capability.Handles{}
	for _, k := range capability.Kinds {
		hs[k] = capability.StaticHandle(k, capability.Unavailable)
	}
	return hs
}

// inputText takes text from args, then piped stdin, then the saved page
// selection.
func inputText(ctx context.Context, a *app, args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); !ok || !isTerminal(f) {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}
	sel, err := a.notebooks.Selection(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sel) == "" {
		return "", errors.New("no text given: pass it as arguments, pipe it on stdin, or save a selection first")
	}
	return sel, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
