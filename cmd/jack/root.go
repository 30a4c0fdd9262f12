package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/logger"
	"github.com/comigor/jack-go/pkg/gateway"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	flagConfig   string
	flagAPIBase  string
	flagLogLevel string
)

// Set up by the root PersistentPreRunE before any subcommand runs.
var (
	cfg     *config.Config
	client  *gateway.Client
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "jack",
	Short: "Terminal client for the Jack AI document assistant",
	Long: `Jack asks questions to a document question-answering backend and
shows the answers together with the sources they were drawn from.

Run without a subcommand to start an interactive chat.`,
	Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (default is ./config.yaml or $HOME/.jack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api-base", "", "backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if flagConfig != "" {
		os.Setenv("CONFIG_PATH", flagConfig)
	}
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagAPIBase != "" {
		if err := c.SetBaseURL(flagAPIBase); err != nil {
			return fmt.Errorf("--api-base: %w", err)
		}
	}
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
	}
	cfg = c
	logger.SetLevel(cfg.Log.Level)

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		logger.SetOutput(f)
	}

	if wantsTUI(cmd) {
		quietLogs()
	}

	cfg.Watch(func(next *config.Config) {
		if flagLogLevel == "" {
			logger.SetLevel(next.Log.Level)
		}
		logger.L.Info("config reloaded", "file", next.File(), "log_level", next.Log.Level)
	}, func(err error) {
		logger.L.Warn("ignoring invalid config change", "error", err)
	})

	client = gateway.NewClient(cfg.API)
	logger.L.Debug("configured", "command", cmd.Name(), "config_file", cfg.File(), "base_url", client.BaseURL())
	return nil
}

// annotationTUI marks commands that draw a full screen interface.
const annotationTUI = "tui"

func wantsTUI(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationTUI] == "true" && interactive()
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// quietLogs keeps log lines off a terminal the UI is drawing on, unless they
// already go to a file.
func quietLogs() {
	if logFile == nil {
		logger.SetOutput(io.Discard)
	}
}
