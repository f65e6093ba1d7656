package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for browser and editor front ends",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.Deps{
			Dispatcher:    a.dispatcher,
			Quizzes:       a.quizzes,
			Flow:          a.flow,
			Notebooks:     a.notebooks,
			Handles:       a.handles,
			Logger:        a.log,
			Registry:      a.registry,
			RatePerSecond: a.cfg.Server.RatePerSecond,
			RateBurst:     a.cfg.Server.RateBurst,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.log.Info("starting api",
			zap.String("provider", a.cfg.LLM.Provider),
			zap.String("store", a.cfg.Store.Backend),
		)
		return srv.Run(ctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("debug", false, "run gin in debug mode")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
