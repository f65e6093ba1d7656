package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/lingopad/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "lingopad",
	Short: "Translate, quiz yourself and track language skills",
	Long: `lingopad translates, summarizes and rewrites text with a language model,
turns what you read into short quizzes, and keeps a per-language notebook
with a skill dashboard built from your quiz results.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./lingopad.yaml or ~/.config/lingopad/config.yaml)")
	pf.String("db", "", "path to the SQLite database (overrides LINGOPAD_STORE_PATH)")
	pf.String("store", "", "storage backend: sqlite, redis or memory")
	pf.String("provider", "", "LLM provider: auto, ollama, anthropic, openai, openrouter, gemini or mock")
	pf.String("log-level", "", "log level: debug, info, warn or error")

	_ = viper.BindPFlag("store.path", pf.Lookup("db"))
	_ = viper.BindPFlag("store.backend", pf.Lookup("store"))
	_ = viper.BindPFlag("llm.provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))

	rootCmd.AddCommand(
		quizCmd,
		selectCmd,
		notebookCmd,
		dashboardCmd,
		capabilitiesCmd,
		serveCmd,
		llmCmd,
		versionCmd,
	)
	for _, c := range actionCommands() {
		rootCmd.AddCommand(c)
	}
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.Bind(v)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("lingopad")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lingopad"))
		}
	}

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Could not read config file:", err)
	}
}
